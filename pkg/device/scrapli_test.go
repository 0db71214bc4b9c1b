package device

import (
	"context"
	"errors"
	"testing"

	"github.com/scrapli/scrapligo/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/cmdref/pkg/util"
)

// recorded builds a response the way the driver does, flagging output
// that contains one of failedWhen.
func recorded(input, output string, failedWhen ...string) *response.Response {
	r := response.NewResponse(input, "sw1", 22, failedWhen)
	r.Record([]byte(output))
	return r
}

func TestResponseError(t *testing.T) {
	assert.NoError(t, responseError(recorded("show running", "feature bgp\n", "% Invalid")))

	r := recorded("vni 5000", "% Invalid command at '^' marker.", "% Invalid")
	require.Error(t, r.Failed)

	err := responseError(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrCLIRejected))

	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "vni 5000", cliErr.Command)
	assert.Contains(t, cliErr.Output, "% Invalid command")
}

func TestConfigsError(t *testing.T) {
	ok := response.NewMultiResponse("sw1")
	ok.AppendResponse(recorded("router bgp 65000", ""))
	ok.AppendResponse(recorded("router-id 1.1.1.1", ""))
	assert.NoError(t, configsError(ok))

	// Failure flagged by the driver.
	failed := response.NewMultiResponse("sw1")
	failed.AppendResponse(recorded("feature vni", ""))
	failed.AppendResponse(recorded("vni 5000", "% Feature not enabled", "% Feature not enabled"))
	failed.AppendResponse(recorded("end", ""))
	err := configsError(failed)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "vni 5000", cliErr.Command)

	// Failure only visible in the output.
	rejected := response.NewMultiResponse("sw1")
	rejected.AppendResponse(recorded("vpc domain 10", ""))
	rejected.AppendResponse(recorded("role priority x", "  % Invalid number at '^' marker."))
	err = configsError(rejected)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "role priority x", cliErr.Command)
	assert.True(t, errors.Is(err, util.ErrCLIRejected))
}

func TestScrapliTransport_Closed(t *testing.T) {
	tr := &ScrapliTransport{host: "sw1"}
	ctx := context.Background()

	_, err := tr.Query(ctx, "show running")
	assert.ErrorIs(t, err, util.ErrNotConnected)
	assert.ErrorIs(t, tr.Configure(ctx, []string{"feature bgp"}), util.ErrNotConnected)
	assert.NoError(t, tr.Configure(ctx, nil))
	assert.NoError(t, tr.Close())
}

func TestDialScrapli_RequiresPlatform(t *testing.T) {
	_, err := DialScrapli(context.Background(), Config{Host: "sw1"})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}
