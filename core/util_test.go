package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrdering(t *testing.T) {
	allowed := []string{"id", "username", "last_name"}
	tests := []struct {
		val  string
		want []DBOrdering
	}{
		{val: "", want: nil},
		{val: "username", want: []DBOrdering{{Field: "username", Ascending: true}}},
		{val: "-last_name, id", want: []DBOrdering{{Field: "last_name"}, {Field: "id", Ascending: true}}},
		{val: "password_hash,-,", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.val, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrdering(tt.val, allowed...))
		})
	}
}

func TestUniqueInts(t *testing.T) {
	assert.Equal(t, []int{1, 2, 5}, UniqueInts([]int{5, 1, 2, 5, 1}))
	assert.Equal(t, []int{}, UniqueInts(nil))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Start Date `json:"start"`
	}

	var p payload
	assert.NoError(t, json.Unmarshal([]byte(`{"start": "2024-09-02"}`), &p))
	assert.Equal(t, NewDate(2024, time.September, 2), p.Start)

	assert.NoError(t, json.Unmarshal([]byte(`{"start": "2024-09-02T23:30:00+02:00"}`), &p))
	assert.Equal(t, NewDate(2024, time.September, 2), p.Start)

	assert.NoError(t, json.Unmarshal([]byte(`{"start": null}`), &p))
	assert.True(t, p.Start.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"start": "02.09.2024"}`), &p))

	data, err := json.Marshal(payload{Start: NewDate(2024, time.September, 2)})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"start": "2024-09-02"}`, string(data))
}
