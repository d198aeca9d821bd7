package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogPage = `<html><body><ul>
<li class="content-listing content-listing--book"><a href="/books/2">
  <i class="book-listing__number">2</i><b class="content-listing__title">The American Short Story: Volume One</b></a></li>
<li class="content-listing content-listing--book"><a href="/books/1">
  <i class="book-listing__number">1</i><b class="content-listing__title">Mark Twain: The Adventures of Tom Sawyer</b></a></li>
<li class="content-listing content-listing--book"><a href="/books/3">
  <i class="book-listing__number">3</i><b class="content-listing__title">Edith Wharton: Novels</b></a></li>
</ul></body></html>`

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/books/loa_collection/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, catalogPage)
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("search")
		link := "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(name, " ", "_")
		_, _ = fmt.Fprintf(w, `[%q,[%q],[""],[%q]]`, name, name, link)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("LOA_CATALOG_URL", srv.URL+"/books/loa_collection/")
	t.Setenv("WIKIPEDIA_API_URL", srv.URL+"/w/api.php")
	t.Setenv("RECORD_DELAY_MS", "0")
	t.Setenv("BATCH_PAUSE_MS", "0")
	t.Setenv("OUTPUT_POSTGRES", "false")
	t.Setenv("LOG_LEVEL", "error")
	return srv
}

func execCmd(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRunWritesCSVToStdout(t *testing.T) {
	newCatalogServer(t)

	out, err := execCmd(newRootCmd(), "--quiet", "-e", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "volume_number,title,author,author_wikipedia_link,loa_detail_link,original_volume_name,own_volume", lines[0])
	assert.Equal(t, "1,The Adventures of Tom Sawyer,Mark Twain,https://en.wikipedia.org/wiki/Mark_Twain,/books/1,Mark Twain: The Adventures of Tom Sawyer,", lines[1])
	assert.Equal(t, "2,The American Short Story: Volume One,,,/books/2,The American Short Story: Volume One,", lines[2])
}

func TestRunWritesCSVFile(t *testing.T) {
	newCatalogServer(t)
	path := filepath.Join(t.TempDir(), "volumes.csv")

	out, err := execCmd(newRootCmd(), "-q", "-s", "3", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "3,Novels,Edith Wharton,https://en.wikipedia.org/wiki/Edith_Wharton,/books/3,")
}

func TestRunEmptyRangeSucceedsWithoutOutput(t *testing.T) {
	newCatalogServer(t)
	path := filepath.Join(t.TempDir(), "volumes.csv")

	_, err := execCmd(newRootCmd(), "-q", "-s", "100", "-o", path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created for an empty selection")
}

func TestRunInvertedRangeSucceedsWithoutOutput(t *testing.T) {
	newCatalogServer(t)
	path := filepath.Join(t.TempDir(), "volumes.csv")

	out, err := execCmd(newRootCmd(), "-q", "-s", "10", "-e", "5", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created for an inverted range")

	out, err = execCmd(newRootCmd(), "-q", "-s", "10", "-e", "5")
	require.NoError(t, err)
	assert.Empty(t, out, "no header should be written to stdout")
}

func TestRunFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	t.Setenv("LOA_CATALOG_URL", srv.URL+"/missing")
	t.Setenv("LOG_LEVEL", "error")

	_, err := execCmd(newRootCmd(), "-q")
	assert.ErrorContains(t, err, "fetch collection page")
}
