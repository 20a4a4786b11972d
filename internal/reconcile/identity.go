package reconcile

import (
	"errors"
	"fmt"

	"github.com/NaiduBugata/vema-society-sub001/internal/models"
	"github.com/NaiduBugata/vema-society-sub001/internal/normalize"
	"github.com/NaiduBugata/vema-society-sub001/internal/repositories"
)

// ErrEmployeeNotFound marks a row whose employee could not be resolved.
// It fails the row, never the batch.
var ErrEmployeeNotFound = errors.New("employee not found")

// resolveEmployee locates the row's employee: exact external code first,
// then the code reinterpreted numerically, then a case-insensitive name
// match.
func (r *Reconciler) resolveEmployee(rec *normalize.Record) (*models.Employee, error) {
	emp, err := r.lookupByCode(rec.EmpID)
	if err != nil {
		return nil, err
	}
	if emp != nil {
		return emp, nil
	}

	if rec.Name != "" {
		emp, err := r.employees.FindByName(rec.Name)
		if err == nil {
			return emp, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: emp_id=%q name=%q", ErrEmployeeNotFound, rec.EmpID, rec.Name)
}

// resolveSurety reuses the employee resolution order for one surety
// code, independently per slot.
func (r *Reconciler) resolveSurety(code string) (*models.Employee, error) {
	emp, err := r.lookupByCode(code)
	if err != nil {
		return nil, err
	}
	if emp != nil {
		return emp, nil
	}

	emp, err = r.employees.FindByName(code)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	return nil, fmt.Errorf("%w: code=%q", ErrEmployeeNotFound, code)
}

// lookupByCode tries the external code as stored, then numerically.
// Returns (nil, nil) when no match; lookup errors are infrastructure
// failures and propagate.
func (r *Reconciler) lookupByCode(code string) (*models.Employee, error) {
	if code == "" {
		return nil, nil
	}

	emp, err := r.employees.FindByEmpID(code)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	emp, err = r.employees.FindByEmpIDNumeric(code)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	return nil, nil
}
