package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

func stateWithRisk(levels ...string) *models.FutureState {
	state := &models.FutureState{
		TargetDate:  "2027-04-01",
		GeneratedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	for i, level := range levels {
		state.DistrictPredictions = append(state.DistrictPredictions, models.Forecast{
			District:           fmt.Sprintf("district-%d", i),
			TargetDate:         "2027-04-01",
			RiskLevel:          level,
			RiskScore:          10,
			TransformersNeeded: 3,
		})
	}
	return state
}

func TestOverloadAlerts(t *testing.T) {
	alerts := OverloadAlerts(stateWithRisk(models.RiskLow, models.RiskHigh, models.RiskMedium))
	require.Len(t, alerts, 1)
	assert.Equal(t, "district-1", alerts[0].District)
	assert.Equal(t, "2026-10-18T09:00:00Z", alerts[0].GeneratedAt)
	assert.Nil(t, OverloadAlerts(nil))
}

func TestPublishHighRiskOnly(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var alert models.OverloadAlert
		if err := json.Unmarshal(val, &alert); err != nil {
			return err
		}
		if alert.District != "district-0" || alert.TransformersNeeded != 3 {
			return fmt.Errorf("unexpected alert %+v", alert)
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	pub := NewAlertPublisherWithProducer(producer, "grid.overload.alerts")
	assert.Equal(t, "kafka-alerts", pub.Name())
	require.NoError(t, pub.OnForecastCompleted(context.Background(), stateWithRisk(models.RiskHigh, models.RiskLow, models.RiskHigh)))
	require.NoError(t, pub.Close())
}

func TestPublishNothingWhenCalm(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewAlertPublisherWithProducer(producer, "grid.overload.alerts")
	require.NoError(t, pub.OnForecastCompleted(context.Background(), stateWithRisk(models.RiskLow)))
	require.NoError(t, pub.Close())
}

func TestPublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewAlertPublisherWithProducer(producer, "grid.overload.alerts")
	err := pub.OnForecastCompleted(context.Background(), stateWithRisk(models.RiskHigh))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish 1 overload alerts")
	require.NoError(t, pub.Close())
}

func TestPublishAfterCloseIsRejected(t *testing.T) {
	broker := sarama.NewMockBroker(t, 1)
	defer broker.Close()
	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetBroker(broker.Addr(), broker.BrokerID()).
			SetLeader("grid.overload.alerts", 0, broker.BrokerID()),
	})

	pub, err := NewAlertPublisher([]string{broker.Addr()}, "grid.overload.alerts")
	require.NoError(t, err)
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	err = pub.OnForecastCompleted(context.Background(), stateWithRisk(models.RiskHigh))
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
