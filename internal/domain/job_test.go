package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePricingMidpoint(t *testing.T) {
	min, max := 1000.0, 2000.0
	j := JobRecord{Budget: Budget{Min: &min, Max: &max}}
	j.ComputePricing()
	require.NotNil(t, j.PricingProposed)
	assert.Equal(t, 1500.0, *j.PricingProposed)
}

func TestComputePricingOneBoundOnly(t *testing.T) {
	min := 300.0
	j := JobRecord{Budget: Budget{Min: &min}}
	j.ComputePricing()
	require.NotNil(t, j.PricingProposed)
	assert.Equal(t, 300.0, *j.PricingProposed)
}

func TestComputePricingNoBounds(t *testing.T) {
	j := JobRecord{}
	j.ComputePricing()
	assert.Nil(t, j.PricingProposed)
}

func TestAppendFailureNilIsNoop(t *testing.T) {
	j := JobRecord{}
	j.AppendFailure("scorer", nil)
	assert.Empty(t, j.FailureLog)
}

func TestAppendFailureRecordsStageAndMessage(t *testing.T) {
	j := JobRecord{}
	j.AppendFailure("scorer", errors.New("boom"))
	require.Len(t, j.FailureLog, 1)
	assert.Contains(t, j.FailureLog[0], "scorer")
	assert.Contains(t, j.FailureLog[0], "boom")
}

func TestSetAttachmentContentTruncates(t *testing.T) {
	long := strings.Repeat("x", 6000)
	j := JobRecord{Attachments: []Attachment{{ExtractedText: long}}}
	j.SetAttachmentContent()
	assert.Len(t, j.AttachmentContent, maxAttachmentContentLen)
}

func TestSetAttachmentContentJoinsMultiple(t *testing.T) {
	j := JobRecord{Attachments: []Attachment{
		{ExtractedText: "first"},
		{ExtractedText: "second"},
	}}
	j.SetAttachmentContent()
	assert.Equal(t, "first\n\nsecond", j.AttachmentContent)
}

func TestEnrichContactPreservesExisting(t *testing.T) {
	j := JobRecord{ContactName: "Preset", Description: "Thanks,\nSomeoneElse"}
	j.EnrichContact()
	assert.Equal(t, "Preset", j.ContactName)
}
