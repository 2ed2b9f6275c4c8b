package troute

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// streamflowVariable is the variable_name value carrying discharge in the
// columnar stream output; velocity and depth rows share the same table.
const streamflowVariable = "streamflow"

type parquetRow struct {
	LocationID   string    `parquet:"location_id"`
	Value        float64   `parquet:"value"`
	ValueTime    time.Time `parquet:"value_time"`
	VariableName string    `parquet:"variable_name"`
}

// openStreamParquetV1 parses the columnar binary encoding: long-form rows of
// (location_id, value, value_time, variable_name), discharge filtered by
// variable name.
//
//	wb-2420800  0.0  2023-04-02 00:05:00  streamflow  m3/s ...
func openStreamParquetV1(path string, _ Window) (OutputFn, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet output %s: %v", path, err)
	}

	flows := make(map[string]Series)
	for _, row := range rows {
		if row.VariableName != streamflowVariable {
			continue
		}
		s := flows[row.LocationID]
		s.Times = append(s.Times, row.ValueTime)
		s.Values = append(s.Values, row.Value)
		flows[row.LocationID] = s
	}

	return func(id int) (Series, error) {
		key := fmt.Sprintf("wb-%d", id)
		s, ok := flows[key]
		if !ok {
			return Series{}, nil
		}
		return sortAndValidate(s, key)
	}, nil
}
