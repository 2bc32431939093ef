package watchspawn_test

import (
	"context"
	"testing"

	"github.com/spiretechnology/go-watchspawn"
	"github.com/stretchr/testify/require"
)

func TestPatternFilter(t *testing.T) {
	cases := []struct {
		pattern  string
		filename string
		want     bool
	}{
		{"*.*", "report.csv", true},
		{"*.*", "README", true},
		{"*", "README", true},
		{"*.csv", "report.csv", true},
		{"*.csv", "incoming/report.csv", true},
		{"*.csv", "report.csv.tmp", false},
		{"*.csv", "report.txt", false},
		{"*.csv", "csv", false},
		{"*.tar.gz", "backup.tar.gz", true},
		{"*.?z", "backup.gz", true},
	}
	for _, c := range cases {
		t.Run(c.pattern+" "+c.filename, func(t *testing.T) {
			filter, err := watchspawn.PatternFilter(c.pattern)
			require.NoError(t, err)
			got, err := filter.Filter(context.Background(), c.filename)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}

	t.Run("malformed pattern", func(t *testing.T) {
		_, err := watchspawn.PatternFilter("*[")
		require.Error(t, err)
	})
}
