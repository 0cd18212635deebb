package models

import (
	"fmt"

	"github.com/ajitpratap0/rowmap/pkg/errors"
)

func errNotRecord(component int, v interface{}) error {
	return errors.New(errors.ErrorTypeMerge, fmt.Sprintf("component is %T, want *models.Record", v)).
		WithDetail(errors.DetailComponent, component)
}
