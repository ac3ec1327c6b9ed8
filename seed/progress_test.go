package seed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Basic(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Start()
	p.Add(25)
	p.Add(25)
	p.Add(50)

	assert.Equal(t, 100, p.Current())
	assert.Contains(t, buf.String(), "100/100")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgress_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 10, 1)

	p.Add(5)
	p.Finish()

	assert.Equal(t, 0, p.Current())
	assert.Empty(t, buf.String())
}

func TestProgress_FinishShowsActualCount(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 1000)

	p.Start()
	p.Add(40)
	assert.Empty(t, buf.String(), "below the report interval")

	p.Finish()
	assert.Contains(t, buf.String(), "40/100 (40.0%)")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 0, 0)

	p.Start()
	p.Finish()

	assert.Contains(t, buf.String(), "0/0")
}

func TestProgress_AddBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 10, 1)

	p.Start()
	p.Add(15)

	assert.Equal(t, 10, p.Current())
}
