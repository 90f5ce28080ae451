package keywords

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayzen-labs/leadminer/internal/ai"
)

type fakeClient struct {
	text string
	err  error
}

func (f fakeClient) Complete(context.Context, ai.Request) (string, error) {
	return f.text, f.err
}

func TestDefaultSource(t *testing.T) {
	t.Parallel()

	got, err := Default{}.Keywords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultList, got)
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		list    []string
		want    []string
		wantErr error
	}{
		{
			name: "trims and dedupes",
			list: []string{" cars for sale ", "cars for sale", "", "Cheap Trucks"},
			want: []string{"cars for sale", "Cheap Trucks"},
		},
		{
			name:    "empty list",
			list:    nil,
			wantErr: ErrNoKeywords,
		},
		{
			name:    "whitespace only",
			list:    []string{"  ", "\t"},
			wantErr: ErrNoKeywords,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Static{List: tc.list}.Keywords(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGeneratedSource(t *testing.T) {
	t.Parallel()

	t.Run("parses model output", func(t *testing.T) {
		t.Parallel()
		g := Generated{Client: fakeClient{text: "1. used suv dealer dallas\n2. certified pre-owned cars\n\n- truck lots near me\n"}}
		got, err := g.Keywords(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"used suv dealer dallas", "certified pre-owned cars", "truck lots near me"}, got)
	})

	t.Run("missing client", func(t *testing.T) {
		t.Parallel()
		_, err := Generated{}.Keywords(context.Background())
		assert.ErrorIs(t, err, ErrMissingKey)
	})

	t.Run("model error propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("rate limited")
		_, err := Generated{Client: fakeClient{err: boom}}.Keywords(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unusable output", func(t *testing.T) {
		t.Parallel()
		_, err := Generated{Client: fakeClient{text: "ok\n-\n1.\n"}}.Keywords(context.Background())
		assert.ErrorIs(t, err, ErrNoKeywords)
	})
}

func TestParseList(t *testing.T) {
	t.Parallel()

	got := ParseList("* \"buy a used car\"\n10) dealer specials\nshort\ndealer specials")
	assert.Equal(t, []string{"buy a used car", "dealer specials", "short"}, got)
}
