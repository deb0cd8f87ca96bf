package navigation

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.Equal(t, "", r.Last())

	require.NoError(t, r.Navigate(context.Background(), "/dashboard/driver"))
	require.NoError(t, r.Navigate(context.Background(), "/"))

	assert.Equal(t, []string{"/dashboard/driver", "/"}, r.Paths())
	assert.Equal(t, "/", r.Last())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		webURL string
		path   string
		want   string
	}{
		{webURL: "https://kanda.rw", path: "/dashboard/insurer", want: "https://kanda.rw/dashboard/insurer"},
		{webURL: "https://kanda.rw/", path: "/", want: "https://kanda.rw/"},
		{webURL: "https://kanda.rw/app", path: "/activate?email=a%40b.com", want: "https://kanda.rw/app/activate?email=a%40b.com"},
		{webURL: "", path: "/dashboard/garage", want: "/dashboard/garage"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Resolve(tt.webURL, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBrowser_PrintsWithoutOpening(t *testing.T) {
	var out bytes.Buffer
	b := NewBrowser("https://kanda.rw", false, &out)
	b.open = func(string) error {
		t.Fatal("browser should not be opened")
		return nil
	}

	require.NoError(t, b.Navigate(context.Background(), "/dashboard/driver"))
	assert.Contains(t, out.String(), "https://kanda.rw/dashboard/driver")
}

func TestBrowser_Opens(t *testing.T) {
	var opened string
	b := NewBrowser("https://kanda.rw", true, nil)
	b.open = func(u string) error {
		opened = u
		return nil
	}

	require.NoError(t, b.Navigate(context.Background(), "/"))
	assert.Equal(t, "https://kanda.rw/", opened)

	b.open = func(string) error { return errors.New("no display") }
	err := b.Navigate(context.Background(), "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please visit: https://kanda.rw/")
}
