package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError(5, "posting_date", ErrCodeImportInvalidFormat, "invalid format")
		assert.Equal(t, "row 5, column 'posting_date': invalid format", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportValidation, "malformed row")
		assert.Equal(t, "row 10: malformed row", err.Error())
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("defaults to one hundred kept errors", func(t *testing.T) {
		ec := NewErrorCollection(0)
		for i := 0; i < 150; i++ {
			ec.AddRequiredError(i+2, ColCustomerID)
		}
		assert.Equal(t, 100, ec.Count())
		assert.Equal(t, 150, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Len(t, ec.Samples(10), 10)
	})

	t.Run("warnings are not failures", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.AddUnmatchedWarning(2, ColCustomerName, "Acme", "company")
		ec.AddTypeError(3, ColQuantity, "number", "abc")

		assert.Equal(t, 2, ec.TotalCount())
		assert.Equal(t, 1, ec.FailureCount())
		assert.True(t, ec.Errors()[0].Warning)
		assert.Equal(t, ErrCodeUnmatchedEntity, ec.Errors()[0].Code)
	})

	t.Run("merge keeps dropped counts", func(t *testing.T) {
		src := NewErrorCollection(1)
		src.AddDuplicateError(2, ColLineID, "L1")
		src.AddDuplicateError(3, ColLineID, "L1")

		dst := NewErrorCollection(10)
		dst.AddFormatError(4, ColPostingDate, "MM/DD/YYYY", "soon")
		dst.Merge(src)

		assert.Equal(t, 2, dst.Count())
		assert.Equal(t, 3, dst.TotalCount())
		assert.Equal(t, map[string]int{
			ErrCodeImportInvalidFormat:   1,
			ErrCodeImportDuplicateInFile: 1,
		}, dst.ErrorSummary())
	})

	t.Run("String", func(t *testing.T) {
		ec := NewErrorCollection(1)
		assert.Equal(t, "no errors", ec.String())

		ec.AddRequiredError(2, ColLineID)
		ec.AddRequiredError(3, ColLineID)
		out := ec.String()
		assert.True(t, strings.HasPrefix(out, "2 error(s) found (showing first 1)"))
		assert.Contains(t, out, "row 2, column 'line_id'")
	})
}
