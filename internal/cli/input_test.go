package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptibleReader(t *testing.T) {
	done := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("hello"), done)

	buf := make([]byte, 2)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "he", string(buf[:n]))

	close(done)
	_, err = r.Read(buf)
	assert.True(t, IsInterrupted(err))
}

func TestIsInterrupted(t *testing.T) {
	assert.True(t, IsInterrupted(io.EOF))
	assert.True(t, IsInterrupted(fmt.Errorf("read: %w", context.Canceled)))
	assert.False(t, IsInterrupted(io.ErrUnexpectedEOF))
	assert.False(t, IsInterrupted(nil))
}

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
