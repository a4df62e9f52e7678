package cbstore

import (
	"context"
	"fmt"
	"strings"
)

// indexes backs the N1QL lookups made by the repositories. Every document
// carries a "type" attribute, so each index leads with it.
var indexes = []struct {
	name   string
	fields string
}{
	{"idx_type_created", "`type`, STR_TO_MILLIS(createdAt)"},
	{"idx_type_email", "`type`, LOWER(email)"},
	{"idx_doctor_hospital", "`type`, hospitalId, STR_TO_MILLIS(createdAt)"},
	{"idx_doctor_license", "`type`, licenseNumber"},
	{"idx_patient_doctor", "`type`, doctorId, STR_TO_MILLIS(createdAt)"},
	{"idx_patient_hospital", "`type`, hospitalId, STR_TO_MILLIS(createdAt)"},
}

// IndexStatements returns the CREATE INDEX statements for bucket.
func IndexStatements(bucket string) []string {
	ks := Keyspace(bucket)
	stmts := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX `%s` IF NOT EXISTS ON %s(%s)", idx.name, ks, idx.fields))
	}
	return stmts
}

// EnsureIndexes creates any missing secondary indexes. It is the Couchbase
// counterpart of the SQL migrations.
func (s *Store) EnsureIndexes(ctx context.Context) ([]string, error) {
	var created []string
	for i, stmt := range IndexStatements(s.bucketName) {
		if err := s.Exec(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return created, fmt.Errorf("create index %s: %w", indexes[i].name, err)
		}
		created = append(created, indexes[i].name)
	}
	return created, nil
}
