package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/ddsflow/internal/runtime/config"
	dderrors "github.com/drblury/ddsflow/internal/runtime/errors"
)

func TestTopicScoping(t *testing.T) {
	assert.Equal(t, "ddsflow_0_radar", scopedTopic(0, "radar"))
	assert.Equal(t, "ddsflow_42_radar", scopedTopic(42, "radar"))
	assert.Equal(t, "ddsflow_0_discovery", discoveryTopic(0))
	assert.Equal(t, "ddsflow_7_discovery", discoveryTopic(7))

	// Same topic, different domains: never the same wire topic.
	assert.NotEqual(t, scopedTopic(0, "radar"), scopedTopic(1, "radar"))
}

func TestTransportConfigCarriesDomainID(t *testing.T) {
	conf := config.Config{Transport: "channel", NATSURL: "nats://localhost:4222"}
	tc := transportConfig{Config: &conf, domainID: 9}

	assert.Equal(t, 9, tc.GetDomainID())
	assert.Equal(t, "channel", tc.GetTransport())
	assert.Equal(t, "nats://localhost:4222", tc.GetNATSURL())
}

func TestRegisterTypeEnforcesConsistency(t *testing.T) {
	p := &Participant{topics: map[string]*topicBinding{}}

	require.NoError(t, p.registerType("radar", "runtime.pointCloud"))
	require.NoError(t, p.registerType("radar", "runtime.pointCloud"))

	err := p.registerType("radar", "runtime.imageFrame")
	assert.ErrorIs(t, err, dderrors.ErrTypeMismatch)

	// Two refs held; the binding survives one release.
	p.releaseType("radar")
	err = p.registerType("radar", "runtime.imageFrame")
	assert.ErrorIs(t, err, dderrors.ErrTypeMismatch)

	// Last ref gone: the topic can be rebound to another type.
	p.releaseType("radar")
	p.releaseType("radar")
	assert.NoError(t, p.registerType("radar", "runtime.imageFrame"))

	// Releasing an unknown topic is a no-op.
	p.releaseType("never-bound")
}
