package pgtrigger

import "errors"

type ScanFunc func(Scanner) error
type ScanValueFunc[T any] func(Scanner) (T, error)
type RowScannerFunc func(rows Rows, queryErr error) error
type SliceScannerFunc[T any] func(rows Rows, queryErr error) ([]T, error)
type FirstScannerFunc[T any] func(rows Rows, queryErr error) (T, bool, error)

func NewRowScanner(f ScanFunc) RowScannerFunc {
	return func(rows Rows, queryErr error) (err error) {
		if queryErr != nil {
			return queryErr
		}
		defer func() { err = errors.Join(err, rows.Close(), rows.Err()) }()

		for rows.Next() {
			if err := f(rows); err != nil {
				return err
			}
		}

		return nil
	}
}

func NewSliceScanner[T any](f ScanValueFunc[T]) SliceScannerFunc[T] {
	return func(rows Rows, queryErr error) ([]T, error) {
		values := make([]T, 0)
		err := NewRowScanner(func(s Scanner) error {
			value, err := f(s)
			if err != nil {
				return err
			}

			values = append(values, value)
			return nil
		})(rows, queryErr)

		return values, err
	}
}

func NewFirstScanner[T any](f ScanValueFunc[T]) FirstScannerFunc[T] {
	return func(rows Rows, queryErr error) (value T, called bool, _ error) {
		err := NewRowScanner(func(s Scanner) (err error) {
			if called {
				return nil
			}

			value, err = f(s)
			called = true
			return err
		})(rows, queryErr)

		return value, called, err
	}
}

func NewAnyValueScanner[T any]() ScanValueFunc[T] {
	return func(s Scanner) (value T, err error) {
		err = s.Scan(&value)
		return
	}
}

var ScanBool = NewFirstScanner(NewAnyValueScanner[bool]())
