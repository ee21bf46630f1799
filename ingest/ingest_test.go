package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrat/domain/table"
	"labrat/internal/errors"
)

const sampleCSV = `treatment,response,completed,notes
Drug,5.1,true,fast responder
Drug,5.3,true,
Placebo,3.0,false,slow
Placebo,,true,missing reading
Drug,4.8,1,
`

func TestParseCSV(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"treatment", "response", "completed", "notes"}, header)
	require.Len(t, tbl, 5)
	assert.Equal(t, "Drug", tbl[0]["treatment"])
	assert.Nil(t, tbl[3]["response"], "blank cells become nil")
	assert.Nil(t, tbl[1]["notes"])
}

func TestParseCSV_Errors(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader(""))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, _, err = ParseCSV(strings.NewReader("a,b,c\n"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), "header-only file")

	_, _, err = ParseCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err, "ragged rows are rejected")
}

func TestParseCSV_StripsBOM(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader("\uFEFFvalue\n1\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, header)
	assert.Len(t, tbl, 2)
}

func TestProfile_KindInference(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	infos := Profile(tbl, header)
	byName := map[string]table.ColumnInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.Equal(t, table.KindCategorical, byName["treatment"].Type)
	assert.Equal(t, 2, byName["treatment"].UniqueCount)

	assert.Equal(t, table.KindNumeric, byName["response"].Type)
	assert.Equal(t, 1, byName["response"].Missing)

	// true/false/1 is a boolean-like mix only while <= 2 distinct forms;
	// this column has three, so it stays categorical.
	assert.Equal(t, table.KindCategorical, byName["completed"].Type)

	assert.Equal(t, table.KindCategorical, byName["notes"].Type)
	assert.Equal(t, 2, byName["notes"].Missing)
}

func TestProfile_BooleanColumn(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader("done\ntrue\nfalse\ntrue\n"))
	require.NoError(t, err)

	infos := Profile(tbl, header)
	require.Len(t, infos, 1)
	assert.Equal(t, table.KindBoolean, infos[0].Type)
	assert.Equal(t, 2, infos[0].UniqueCount)
}

func TestProfile_AllMissingColumn(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader("a,b\n1,\n2,\n"))
	require.NoError(t, err)

	infos := Profile(tbl, header)
	assert.Equal(t, table.KindCategorical, infos[1].Type)
	assert.Equal(t, 2, infos[1].Missing)
}

func TestNormalize_NumericColumnsBecomeFloats(t *testing.T) {
	tbl, header, err := ParseCSV(strings.NewReader("x,label\n2.0,a\n2,b\n3,a\n"))
	require.NoError(t, err)

	infos := Profile(tbl, header)
	Normalize(tbl, infos)

	assert.Equal(t, 2.0, tbl[0]["x"])
	assert.Equal(t, 2.0, tbl[1]["x"])
	assert.Equal(t, "a", tbl[0]["label"], "categorical cells stay strings")

	// "2.0" and "2" collapse to the same group label after conversion.
	sa, _ := table.StringValue(tbl[0]["x"])
	sb, _ := table.StringValue(tbl[1]["x"])
	assert.Equal(t, sa, sb)
}

func TestPreview(t *testing.T) {
	tbl := table.Table{{"a": 1.0}, {"a": 2.0}, {"a": 3.0}}
	assert.Len(t, Preview(tbl, 5), 3)
	assert.Len(t, Preview(tbl, 2), 2)
}
