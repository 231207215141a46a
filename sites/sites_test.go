package sites

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, body string) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "location.lst")
	require.NoError(t, os.WriteFile(fp, []byte(body), 0644))
	return fp
}

func TestReadList(t *testing.T) {
	fp := writeList(t, `# site list
New_York	12	40.70	-74.01

Halifax	96	44.66	-63.58
`)
	ss, err := ReadList(fp)
	require.NoError(t, err)
	require.Len(t, ss, 2)

	require.Equal(t, "New_York", ss[0].Name)
	require.Equal(t, 12, ss[0].ID)
	require.Equal(t, 40.70, ss[0].Loc.Y)
	require.Equal(t, -74.01, ss[0].Loc.X)

	require.Equal(t, []int{12, 96}, IDs(ss))
	require.Equal(t, []float64{40.70, 44.66}, Lats(ss))
	require.Equal(t, []float64{-74.01, -63.58}, Lons(ss))
}

func TestReadListMalformed(t *testing.T) {
	_, err := ReadList(writeList(t, "Halifax 96 44.66\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")

	_, err = ReadList(writeList(t, "Halifax ninetysix 44.66 -63.58\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid site id")

	_, err = ReadList(writeList(t, "# nothing but comments\n"))
	require.Error(t, err)
}

func TestReadListMissingFile(t *testing.T) {
	_, err := ReadList(filepath.Join(t.TempDir(), "nope.lst"))
	require.Error(t, err)
}
