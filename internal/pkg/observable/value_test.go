package observable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Singularity-v/MAP/internal/pkg/observable"
)

func TestValue_SetNotifiesInOrder(t *testing.T) {
	v := observable.New(0)

	var got []string
	v.Subscribe(func(n int) { got = append(got, "a") })
	v.Subscribe(func(n int) { got = append(got, "b") })

	v.Set(7)

	assert.Equal(t, 7, v.Get())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestValue_CancelStopsDelivery(t *testing.T) {
	v := observable.New("")

	calls := 0
	cancel := v.Subscribe(func(string) { calls++ })
	v.Set("x")
	cancel()
	cancel()
	v.Set("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, "y", v.Get())
}
