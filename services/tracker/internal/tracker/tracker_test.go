package tracker

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/iss-ears/internal/issnow"
	"github.com/02loveslollipop/iss-ears/internal/models"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Silence logs in tests
	return logger
}

var overFrance = models.Position{Latitude: 45.0, Longitude: 2.0}

// ============================================================================
// TESTS
// ============================================================================

func TestTickDispatchesOverRegion(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	fetcher.On("FetchPosition", mock.Anything).Return(overFrance, nil).Once()
	dispatcher.On("Send", mock.Anything, nabaztag.DefaultBatch()).Return([]byte("ok"), nil).Once()

	var out bytes.Buffer
	tr := New(fetcher, dispatcher, quietLogger(), Options{Out: &out})

	outcome := tr.Tick(context.Background())

	assert.True(t, outcome.InRegion)
	assert.True(t, outcome.Dispatched)
	assert.Equal(t, []byte("ok"), outcome.Response)
	assert.NoError(t, outcome.SendErr)
	assert.Contains(t, out.String(), `Received "ok"`)
	assert.Contains(t, out.String(), "The ISS is currently over France.")
	fetcher.AssertExpectations(t)
	dispatcher.AssertNumberOfCalls(t, "Send", 1)
}

func TestTickSkipsOutsideRegion(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	fetcher.On("FetchPosition", mock.Anything).Return(models.Position{Latitude: 0, Longitude: 0}, nil).Once()

	var out bytes.Buffer
	tr := New(fetcher, dispatcher, quietLogger(), Options{Out: &out})

	outcome := tr.Tick(context.Background())

	assert.False(t, outcome.InRegion)
	assert.False(t, outcome.Dispatched)
	assert.Equal(t, "The ISS is not over France.\n", out.String())
	dispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestTickFetchErrorUsesUnknownPosition(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	fetchErr := &issnow.FetchError{Kind: issnow.KindTimeout, Err: context.DeadlineExceeded}
	fetcher.On("FetchPosition", mock.Anything).Return(models.Position{Latitude: 45, Longitude: 2}, fetchErr).Once()

	tr := New(fetcher, dispatcher, quietLogger(), Options{})

	outcome := tr.Tick(context.Background())

	assert.ErrorIs(t, outcome.FetchErr, context.DeadlineExceeded)
	assert.Equal(t, models.Position{}, outcome.Position)
	assert.False(t, outcome.InRegion)
	dispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestTickDispatchErrorIsReported(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	recorder := new(MockRecorder)
	sendErr := &nabaztag.DispatchError{Op: nabaztag.OpConnect, Addr: "localhost:1234", Err: errors.New("connection refused")}
	fetcher.On("FetchPosition", mock.Anything).Return(overFrance, nil).Once()
	dispatcher.On("Send", mock.Anything, mock.Anything).Return(nil, sendErr).Once()
	recorder.On("RecordDispatch", mock.Anything, mock.MatchedBy(func(rec models.DispatchRecord) bool {
		return rec.Error != nil && strings.Contains(*rec.Error, "connection refused") && rec.Response == nil
	})).Return(nil).Once()

	var out bytes.Buffer
	tr := New(fetcher, dispatcher, quietLogger(), Options{Out: &out, Recorder: recorder})

	outcome := tr.Tick(context.Background())

	assert.True(t, outcome.Dispatched)
	assert.ErrorIs(t, outcome.SendErr, sendErr)
	assert.Contains(t, out.String(), "Socket error:")
	recorder.AssertExpectations(t)
}

func TestTickRecordsSuccessfulDispatch(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	recorder := new(MockRecorder)
	fetcher.On("FetchPosition", mock.Anything).Return(overFrance, nil).Once()
	dispatcher.On("Send", mock.Anything, mock.Anything).Return([]byte("done"), nil).Once()
	recorder.On("RecordDispatch", mock.Anything, mock.MatchedBy(func(rec models.DispatchRecord) bool {
		return rec.Latitude == 45.0 && rec.Longitude == 2.0 &&
			rec.Target == "localhost:1234" &&
			rec.Response != nil && *rec.Response == "done" &&
			strings.Count(rec.Payload, "\n") == 2
	})).Return(errors.New("db down")).Once()

	tr := New(fetcher, dispatcher, quietLogger(), Options{Recorder: recorder})

	outcome := tr.Tick(context.Background())

	// a failing recorder does not change the outcome
	assert.NoError(t, outcome.SendErr)
	recorder.AssertExpectations(t)
}

func TestTickDryRun(t *testing.T) {
	t.Parallel()
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	fetcher.On("FetchPosition", mock.Anything).Return(overFrance, nil).Once()

	tr := New(fetcher, dispatcher, quietLogger(), Options{DryRun: true})

	outcome := tr.Tick(context.Background())

	assert.True(t, outcome.InRegion)
	assert.False(t, outcome.Dispatched)
	dispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	fetcher := new(MockFetcher)
	dispatcher := new(MockDispatcher)
	fetcher.On("FetchPosition", mock.Anything).Return(models.Position{}, nil).Run(func(mock.Arguments) {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
	})

	tr := New(fetcher, dispatcher, quietLogger(), Options{Interval: 5 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	dispatcher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

// TestTickEndToEnd drives a real nabaztag client against a loopback device.
func TestTickEndToEnd(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	var accepted int32
	received := make(chan string, 2)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&accepted, 1)
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(conn)
			received <- buf.String()
			_, _ = conn.Write([]byte("ack"))
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	client := nabaztag.New("127.0.0.1", port, quietLogger(), nabaztag.WithTimeout(2*time.Second))

	fetcher := new(MockFetcher)
	fetcher.On("FetchPosition", mock.Anything).Return(overFrance, nil).Once()
	fetcher.On("FetchPosition", mock.Anything).Return(models.Position{}, nil).Once()

	tr := New(fetcher, client, quietLogger(), Options{})

	first := tr.Tick(context.Background())
	second := tr.Tick(context.Background())

	require.NoError(t, first.SendErr)
	assert.Equal(t, "ack", string(first.Response))
	assert.False(t, second.Dispatched)

	select {
	case payload := <-received:
		assert.Equal(t,
			"{\"type\":\"ears\",\"request_id\":1,\"left\":10,\"right\":15}\n"+
				"{\"type\":\"ears\",\"request_id\":2,\"left\":5,\"right\":0}\n",
			payload)
	case <-time.After(2 * time.Second):
		t.Fatal("device never received the batch")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&accepted))
}
