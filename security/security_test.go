package security_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/security"
	"github.com/vorjdux/monocoque/wire"
)

func TestPlainHandshakeSuccess(t *testing.T) {
	client := security.NewPlainClient("alice", "secret")
	server := security.NewPlainServer("global", security.AllowAllValidator{})

	helloFrames := client.Start()
	require.Len(t, helloFrames, 1)
	name, body, err := wire.DecodeCommandName(helloFrames[0].Payload.Bytes())
	require.NoError(t, err)

	respFrames, step, err := server.Next(name, body)
	require.NoError(t, err)
	require.Equal(t, security.StepDone, step)
	require.Len(t, respFrames, 1)

	name2, body2, err := wire.DecodeCommandName(respFrames[0].Payload.Bytes())
	require.NoError(t, err)
	_, step2, err := client.Next(name2, body2)
	require.NoError(t, err)
	require.Equal(t, security.StepDone, step2)
}

type rejectAll struct{}

func (rejectAll) Validate(security.Request) security.Response {
	return security.Response{StatusCode: security.ZAPStatusAuthFailure, StatusText: "denied"}
}

func TestPlainHandshakeRejected(t *testing.T) {
	client := security.NewPlainClient("alice", "wrong")
	server := security.NewPlainServer("global", rejectAll{})

	helloFrames := client.Start()
	name, body, _ := wire.DecodeCommandName(helloFrames[0].Payload.Bytes())

	_, step, err := server.Next(name, body)
	require.Error(t, err)
	require.Equal(t, security.StepFailed, step)
}

func TestCurveHandshakeAndFrameEncryption(t *testing.T) {
	serverLT, err := security.GenerateKeyPair()
	require.NoError(t, err)
	clientLT, err := security.GenerateKeyPair()
	require.NoError(t, err)

	client, err := security.NewCurveClient(clientLT, serverLT.Public)
	require.NoError(t, err)
	server, err := security.NewCurveServer(serverLT, "global", nil)
	require.NoError(t, err)

	hello := client.Start()
	require.Len(t, hello, 1)
	name, body, err := wire.DecodeCommandName(hello[0].Payload.Bytes())
	require.NoError(t, err)

	welcome, step, err := server.Next(name, body)
	require.NoError(t, err)
	require.Equal(t, security.StepContinue, step)

	name, body, err = wire.DecodeCommandName(welcome[0].Payload.Bytes())
	require.NoError(t, err)
	initiate, step, err := client.Next(name, body)
	require.NoError(t, err)
	require.Equal(t, security.StepContinue, step)

	name, body, err = wire.DecodeCommandName(initiate[0].Payload.Bytes())
	require.NoError(t, err)
	ready, step, err := server.Next(name, body)
	require.NoError(t, err)
	require.Equal(t, security.StepDone, step)

	name, body, err = wire.DecodeCommandName(ready[0].Payload.Bytes())
	require.NoError(t, err)
	_, step, err = client.Next(name, body)
	require.NoError(t, err)
	require.Equal(t, security.StepDone, step)

	// Once both sides are Active, frames must encrypt/decrypt correctly
	// and never reuse a nonce.
	ct1, err := client.Encrypt([]byte("hello server"))
	require.NoError(t, err)
	pt1, err := server.Decrypt(ct1)
	require.NoError(t, err)
	require.Equal(t, "hello server", string(pt1))

	ct2, err := client.Encrypt([]byte("second message"))
	require.NoError(t, err)
	require.NotEqual(t, ct1, ct2)
	pt2, err := server.Decrypt(ct2)
	require.NoError(t, err)
	require.Equal(t, "second message", string(pt2))
}
