package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDispatch(t *testing.T) {
	s := New(map[string]any{"a": 1.0})
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = s.Get("b")
	assert.False(t, ok)

	s.Dispatch("b", true)
	v, ok = s.Get("b")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.Equal(t, []string{"a", "b"}, s.Paths())
}

func TestSubscribe(t *testing.T) {
	s := New(nil)
	var one, all []string
	cancelOne := s.Subscribe("x", func(path string, v any) { one = append(one, path) })
	cancelAll := s.Subscribe("", func(path string, v any) { all = append(all, path) })

	s.Dispatch("x", 1)
	s.Dispatch("y", 2)
	assert.Equal(t, []string{"x"}, one)
	assert.Equal(t, []string{"x", "y"}, all)

	cancelOne()
	cancelOne()
	s.Dispatch("x", 3)
	assert.Equal(t, []string{"x"}, one)
	assert.Equal(t, []string{"x", "y", "x"}, all)
	cancelAll()
}

func TestSubscriberMayDispatch(t *testing.T) {
	s := New(nil)
	s.Subscribe("a", func(path string, v any) {
		s.Dispatch("b", v)
	})
	s.Dispatch("a", 7)
	v, _ := s.Get("b")
	assert.Equal(t, 7, v)
}
