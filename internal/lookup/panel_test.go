package lookup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

func TestPanelHighlightWrapsThroughCreateNew(t *testing.T) {
	p := &Panel{}
	p.Open(Result{
		RowID:      uuid.New(),
		Kind:       voucher.EntityAccount,
		Term:       "ca",
		Candidates: []Candidate{{ID: 1, Code: "1001"}, {ID: 2, Code: "1002"}},
	})

	require.Equal(t, 0, p.Highlight())
	p.Next()
	require.Equal(t, 1, p.Highlight())
	p.Next()
	require.Equal(t, 2, p.Highlight(), "trailing entry is the create-new affordance")
	p.Next()
	require.Equal(t, 0, p.Highlight(), "wraps back to the top")

	p.Prev()
	require.Equal(t, 2, p.Highlight(), "wraps from top to create-new")
}

func TestPanelCommitCandidate(t *testing.T) {
	p := &Panel{}
	p.Open(Result{Term: "off", Candidates: []Candidate{{ID: 7, Code: "5001", Name: "Office Rent"}}})

	c, term, createNew := p.Commit()
	require.False(t, createNew)
	require.Equal(t, int64(7), c.ID)
	require.Equal(t, "off", term)
	require.False(t, p.IsOpen(), "commit closes the panel")
}

func TestPanelCommitCreateNew(t *testing.T) {
	p := &Panel{}
	p.Open(Result{Term: "new cc", Candidates: []Candidate{{ID: 1}}})
	p.Next() // move onto create-new

	c, term, createNew := p.Commit()
	require.True(t, createNew)
	require.Zero(t, c.ID)
	require.Equal(t, "new cc", term)
}

func TestPanelIgnoresInputWhenClosed(t *testing.T) {
	p := &Panel{}
	p.Next()
	p.Prev()
	_, _, createNew := p.Commit()
	require.False(t, createNew)
	require.False(t, p.IsOpen())
}
