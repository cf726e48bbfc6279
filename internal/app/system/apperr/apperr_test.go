package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/inputval"
)

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("load: %w", apperr.NotFound("Project"))

	if !apperr.IsNotFound(err) {
		t.Fatal("wrapped NotFoundError not detected")
	}
	if apperr.IsNotFound(apperr.ErrForbidden) {
		t.Error("ErrForbidden reported as not found")
	}

	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "Project not found." {
		t.Errorf("got %v", nf)
	}
}

func TestValidation(t *testing.T) {
	if err := apperr.Validation(inputval.Errors{}); err != nil {
		t.Errorf("empty errors should give nil, got %v", err)
	}

	err := apperr.Invalid("user_id", "This field is required.")
	ve, ok := apperr.AsValidation(err)
	if !ok {
		t.Fatal("AsValidation failed")
	}
	if got := ve.Fields["user_id"]; len(got) != 1 || got[0] != "This field is required." {
		t.Errorf("got %v", got)
	}
}
