package checks

import (
	"fmt"
	"reflect"
	"strings"

	"test-manifest/core/database"

	"gorm.io/gorm"
)

// SchemaReport strictly types the result of a schema check.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the database schema using GORM models as the source of truth.
// Every model must implement TableName.
func CheckSchema(db *gorm.DB, models ...any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
		Matched: true,
	}

	for _, model := range models {
		val := reflect.TypeOf(model)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return nil, fmt.Errorf("model %s is not a struct", val)
		}

		tabler, ok := reflect.New(val).Interface().(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %s does not implement TableName", val.Name())
		}
		tableName := tabler.TableName()

		tblReport := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}

		actualCols, err := database.GetTableColumns(db, tableName)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
			report.Matched = false
			continue
		}

		actualMap := make(map[string]database.ColumnInfo)
		for _, col := range actualCols {
			actualMap[col.Field] = col
		}

		for i := 0; i < val.NumField(); i++ {
			gormTag := val.Field(i).Tag.Get("gorm")

			colName := parseGormColumn(gormTag)
			if colName == "" {
				continue
			}

			actCol, exists := actualMap[colName]
			if !exists {
				tblReport.MissingColumns = append(tblReport.MissingColumns, colName)
				tblReport.Status = "error"
				report.Matched = false
				continue
			}

			// Only columns with an explicit type are compared, loosely.
			expType := strings.ToLower(parseGormType(gormTag))
			if expType != "" && !strings.Contains(actCol.Type, expType) {
				mismatch := fmt.Sprintf("%s: expected %s, got %s", colName, expType, actCol.Type)
				tblReport.TypeMismatches = append(tblReport.TypeMismatches, mismatch)
				tblReport.Status = "error"
				report.Matched = false
			}
		}

		report.Tables[tableName] = tblReport
	}

	return report, nil
}

// Helpers to parse simple GORM tags
func parseGormColumn(tag string) string {
	return gormTagValue(tag, "column:")
}

func parseGormType(tag string) string {
	return gormTagValue(tag, "type:")
}

func gormTagValue(tag, key string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, key) {
			return strings.TrimPrefix(p, key)
		}
	}
	return ""
}
