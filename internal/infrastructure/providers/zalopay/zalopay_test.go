package zalopay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildAppTransID(t *testing.T) {
	now := time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "251008_o1", buildAppTransID(now, "o1"))
}

func TestHandleCallback_ValidMac(t *testing.T) {
	a := New(Config{AppID: "app1", Key1: "key1", Key2: "key2"})

	inner, _ := json.Marshal(callbackInnerData{AppTransID: "251008_o1"})
	mac := hmacSHA256("key2", string(inner))
	body, _ := json.Marshal(callbackEnvelope{Data: string(inner), Mac: mac, Type: 1})

	outcome, err := a.HandleCallback(nil, body)
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, "251008_o1", outcome.ProviderTransactionID)
	resp := outcome.ProviderResponse.(successResponse)
	require.Equal(t, 1, resp.ReturnCode)
}

func TestHandleCallback_InvalidMac(t *testing.T) {
	a := New(Config{AppID: "app1", Key1: "key1", Key2: "key2"})

	inner, _ := json.Marshal(callbackInnerData{AppTransID: "251008_o1"})
	body, _ := json.Marshal(callbackEnvelope{Data: string(inner), Mac: "deadbeef", Type: 1})

	outcome, err := a.HandleCallback(nil, body)
	require.NoError(t, err)
	require.False(t, outcome.Success)
	resp := outcome.ProviderResponse.(successResponse)
	require.Equal(t, -1, resp.ReturnCode)
}

func TestHandleCallback_WrongType(t *testing.T) {
	a := New(Config{AppID: "app1", Key1: "key1", Key2: "key2"})

	inner, _ := json.Marshal(callbackInnerData{AppTransID: "251008_o1"})
	mac := hmacSHA256("key2", string(inner))
	body, _ := json.Marshal(callbackEnvelope{Data: string(inner), Mac: mac, Type: 2})

	outcome, err := a.HandleCallback(nil, body)
	require.NoError(t, err)
	require.False(t, outcome.Success)
}

func TestComputeOrderMAC_Deterministic(t *testing.T) {
	req := createOrderRequest{
		AppID: "app1", AppTransID: "251008_o1", AppUser: "u1",
		Amount: 100000, AppTime: 1000, EmbedData: "{}", Item: "[]",
	}
	mac1 := computeOrderMAC("key1", req)
	mac2 := computeOrderMAC("key1", req)
	require.Equal(t, mac1, mac2)
	require.Len(t, mac1, 64)
}
