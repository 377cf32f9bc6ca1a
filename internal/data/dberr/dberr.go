package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

// Map translates storage failures into the shared sentinels, tagging them with op.
// Errors it does not recognise are wrapped unchanged.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, pkgerrors.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w: %s", op, pkgerrors.ErrConflict, pgErr.ConstraintName)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("%s: %w: %s", op, pkgerrors.ErrInvalidArgument, pgErr.Message)
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
