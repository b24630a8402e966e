package excel

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"blank", "   ", ""},
		{"trimmed", "  Dorfstraße ", "Dorfstraße"},
		{"integral float", 12.0, "12"},
		{"fraction", 1.5, "1.5"},
		{"nan", math.NaN(), ""},
		{"int", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		def  int
		want int
	}{
		{"nil", nil, 0, 0},
		{"text", "4", 0, 4},
		{"float text truncates", "3.7", 0, 3},
		{"negative truncates toward zero", "-2.9", 0, -2},
		{"nan text", "NaN", 9, 9},
		{"none text", "None", 9, 9},
		{"null text", "null", 9, 9},
		{"garbage", "abc", 5, 5},
		{"float", 2.0, 0, 2},
		{"beyond int32", "3000000000", 0, 3000000000},
		{"negative beyond int32", -3000000000.0, 0, -3000000000},
		{"out of range", "1e20", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.in, tt.def))
		})
	}
}

func TestOptionalInt(t *testing.T) {
	assert.Nil(t, OptionalInt(""))
	assert.Nil(t, OptionalInt("n/a"))

	got := OptionalInt("12")
	require.NotNil(t, got)
	assert.Equal(t, 12, *got)
}

func TestDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	t.Run("text with time of day keeps only the date", func(t *testing.T) {
		got := Date("2024-03-05 10:30:00", berlin)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, berlin), *got)
	})

	t.Run("numeric serial", func(t *testing.T) {
		got := Date(45000.0, berlin)
		require.NotNil(t, got)
		assert.Equal(t, 2023, got.Year())
		assert.Equal(t, time.March, got.Month())
		assert.Equal(t, 15, got.Day())
		assert.Equal(t, berlin, got.Location())
	})

	t.Run("numeric text is not a serial", func(t *testing.T) {
		assert.Nil(t, Date("45000", berlin))
		assert.Nil(t, Date("2024", berlin))
	})

	t.Run("naive time keeps wall clock", func(t *testing.T) {
		in := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
		got := Date(in, berlin)
		require.NotNil(t, got)
		assert.Equal(t, 8, got.Hour())
		assert.Equal(t, berlin, got.Location())
	})

	t.Run("unparsable values", func(t *testing.T) {
		assert.Nil(t, Date("", berlin))
		assert.Nil(t, Date("05.03.2024", berlin))
		assert.Nil(t, Date("soon", berlin))
		assert.Nil(t, Date(math.NaN(), berlin))
		assert.Nil(t, Date(-3.0, berlin))
	})
}
