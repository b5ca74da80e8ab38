//go:build integration

package places

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestIntegration_RealAPI(t *testing.T) {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		t.Skip("GOOGLE_MAPS_API_KEY required for integration tests")
	}

	client := NewClient("https://maps.googleapis.com", apiKey, 10*time.Second, logrus.New())
	source := NewPlacesSource(client, logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	found, err := source.Nearby(ctx, Query{Location: "New York, NY", Radius: 5000})
	require.NoError(t, err)
	require.NotEmpty(t, found)

	t.Logf("Found %d facilities, first: %s", len(found), found[0].Name)
}
