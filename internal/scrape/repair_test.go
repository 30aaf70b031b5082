package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairLiteralLooseObject(t *testing.T) {
	payload, repaired, err := ParseLiteral(`{id:5,'name':'Team B',}`)
	assert.NoError(t, err)
	assert.Equal(t, `{"id":5,"name":"Team B"}`, repaired)
	assert.Equal(t, float64(5), payload["id"])
	assert.Equal(t, "Team B", payload["name"])
}

func TestRepairLiteralIdempotent(t *testing.T) {
	inputs := []string{
		`{id:5,'name':'Team B',}`,
		`{nested:{a:1,b:[1,2,],},c:'x'}`,
		`{"already": "strict", "n": 1}`,
	}
	for _, input := range inputs {
		once := RepairLiteral(input)
		assert.Equal(t, once, RepairLiteral(once))
	}
}

func TestRepairLiteralTrailingCommas(t *testing.T) {
	_, repaired, err := ParseLiteral(`{list:[1,2,3,],obj:{a:1,},}`)
	assert.NoError(t, err)
	assert.Equal(t, `{"list":[1,2,3],"obj":{"a":1}}`, repaired)
}

func TestRepairLiteralBareKeysOnly(t *testing.T) {
	// quoted keys and colon values inside strings stay untouched
	repaired := RepairLiteral(`{"kickOff":"2026-03-01T15:00:00",status:'FT'}`)
	assert.Equal(t, `{"kickOff":"2026-03-01T15:00:00","status":"FT"}`, repaired)
}

func TestRepairLiteralPreservesEscapedQuotes(t *testing.T) {
	// escaped single quotes are kept; only the delimiters are converted
	repaired := RepairLiteral(`{note:'it\'s'}`)
	assert.Equal(t, `{"note":"it\'s"}`, repaired)
}

func TestParseLiteralFailureReturnsRepairedText(t *testing.T) {
	payload, repaired, err := ParseLiteral(`{broken:`)
	assert.Error(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, `{"broken":`, repaired)
}

func TestRepairLiteralValidJSONUnchanged(t *testing.T) {
	strict := `{"id":5,"teams":["A","B"],"score":{"home":2,"away":1}}`
	assert.Equal(t, strict, RepairLiteral(strict))
}
