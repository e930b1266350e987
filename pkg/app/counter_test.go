package app

import (
	"sync"
	"testing"
	"time"

	"gpiocount/pkg/app/config"
	"gpiocount/pkg/raspberry"

	"github.com/stretchr/testify/require"
)

// newTestApp builds an initialized app against the emulator, without the
// web server or a broker.
func newTestApp(t *testing.T, bounce time.Duration) (*App, *raspberry.Emulator) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BounceTime = bounce

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.init())
	t.Cleanup(func() { _ = a.Close() })

	return a, a.gpio.(*raspberry.Emulator)
}

func TestIncrementScenario(t *testing.T) {
	a, emu := newTestApp(t, 0)

	require.NoError(t, a.RebindLeds("17,23"))
	require.Equal(t, uint(3), a.State().MaxPossible)

	// five presses on two digits: 1,2,3,wrap,1
	wantValues := []uint{1, 2, 3, 0, 1}
	wantMax := []uint{1, 2, 3, 3, 3}

	for i := range wantValues {
		a.Increment()
		require.Equal(t, wantValues[i], a.Value(), "press %d", i+1)
		require.Equal(t, wantMax[i], a.MaxValue(), "press %d", i+1)
	}

	// value 1: bit 0 set, bit 1 clear
	require.True(t, emu.Level(17))
	require.False(t, emu.Level(23))
}

func TestButtonEdgeDebounce(t *testing.T) {
	a, emu := newTestApp(t, 50*time.Millisecond)

	require.NoError(t, a.RebindLeds("5,6,13"))
	require.NoError(t, a.RebindButton(27))

	// the gate window starts at the epoch, let it open first
	time.Sleep(60 * time.Millisecond)

	// a press with bounce: three edges in quick succession
	emu.Trigger(27)
	emu.Trigger(27)
	emu.Trigger(27)
	require.Equal(t, uint(1), a.Value(), "bounce edges advanced the counter")

	time.Sleep(60 * time.Millisecond)
	emu.Trigger(27)
	require.Equal(t, uint(2), a.Value())
}

func TestButtonEdgeWithoutLeds(t *testing.T) {
	a, emu := newTestApp(t, time.Millisecond)

	require.NoError(t, a.RebindButton(27))
	time.Sleep(5 * time.Millisecond)

	// without capacity every accepted edge wraps straight to 0
	emu.Trigger(27)
	require.Equal(t, uint(0), a.Value())
	require.Equal(t, uint(0), a.MaxValue())
}

func TestRebindButtonReleasesOldLine(t *testing.T) {
	a, emu := newTestApp(t, time.Millisecond)

	require.NoError(t, a.RebindButton(27))
	require.Equal(t, 27, a.ButtonGpio())
	require.True(t, emu.Claimed(27))

	require.NoError(t, a.RebindButton(22))
	require.Equal(t, 22, a.ButtonGpio())
	require.False(t, emu.Claimed(27), "old button line still claimed")
	require.True(t, emu.Claimed(22))

	// edges on the released line are dead
	time.Sleep(5 * time.Millisecond)
	emu.Trigger(27)
	require.Equal(t, uint(0), a.Value())

	// 0 unbinds
	require.NoError(t, a.RebindButton(0))
	require.Equal(t, 0, a.ButtonGpio())
	require.False(t, emu.Claimed(22))
}

func TestConcurrentButtonRebinds(t *testing.T) {
	a, emu := newTestApp(t, time.Millisecond)

	// two racing rebinds must be observed as one release+claim pair
	// each: whichever loses still releases its line, so unbinding
	// afterwards leaves no line claimed with a live subscription
	for i := 0; i < 50; i++ {
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_ = a.RebindButton(5)
		}()
		go func() {
			defer wg.Done()
			<-start
			_ = a.RebindButton(6)
		}()
		close(start)
		wg.Wait()

		bound := a.ButtonGpio()
		require.Contains(t, []int{5, 6}, bound, "iteration %d", i)
		loser := 11 - bound
		require.False(t, emu.Claimed(loser), "iteration %d: gpio %d leaked", i, loser)

		require.NoError(t, a.RebindButton(0))
		require.False(t, emu.Claimed(5), "iteration %d: gpio 5 leaked after unbind", i)
		require.False(t, emu.Claimed(6), "iteration %d: gpio 6 leaked after unbind", i)
		require.Equal(t, 0, a.ButtonGpio())
	}
}

func TestRebindButtonInvalidLine(t *testing.T) {
	a, _ := newTestApp(t, time.Millisecond)

	require.NoError(t, a.RebindButton(27))
	err := a.RebindButton(99)
	require.ErrorIs(t, err, raspberry.ErrInvalidLine)

	// the old binding was released before the failed bind
	require.Equal(t, 0, a.ButtonGpio())
}

func TestSetValueUnclamped(t *testing.T) {
	a, emu := newTestApp(t, 0)

	require.NoError(t, a.RebindLeds("17,23"))

	a.SetValue(7)
	require.Equal(t, uint(7), a.Value())
	require.Equal(t, uint(7), a.MaxValue())

	// the projection reflects the low 2 bits only
	require.True(t, emu.Level(17))
	require.True(t, emu.Level(23))
}

func TestRebindLedsParseErrorLeavesUnbound(t *testing.T) {
	a, _ := newTestApp(t, 0)

	require.NoError(t, a.RebindLeds("17,23"))
	a.SetValue(2)

	// rebinding always unbinds first, so a parse failure leaves the set
	// unbound rather than restoring the previous binding
	require.Error(t, a.RebindLeds("17,nope"))
	require.Equal(t, "", a.LedsDescriptor())
	require.Equal(t, uint(0), a.State().MaxPossible)
	require.Equal(t, uint(0), a.Value())
	require.Equal(t, uint(2), a.MaxValue())
}

func TestRebindLedsReusesLines(t *testing.T) {
	a, emu := newTestApp(t, 0)

	require.NoError(t, a.RebindLeds("17,23"))
	require.NoError(t, a.RebindLeds("23,17,5"))
	require.Equal(t, "23,17,5", a.LedsDescriptor())
	require.Equal(t, uint(7), a.State().MaxPossible)
	require.True(t, emu.Claimed(5))
}

func TestStartupBindings(t *testing.T) {
	cfg := config.NewConfig()
	cfg.GpioLeds = "17,23"
	cfg.GpioButton = 27

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.init())
	defer func() { _ = a.Close() }()

	require.Equal(t, "17,23", a.LedsDescriptor())
	require.Equal(t, 27, a.ButtonGpio())
	require.Equal(t, uint(0), a.Value())
}
