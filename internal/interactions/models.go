package interactions

import "time"

// RawInteraction is one event from the unified channel feed: an SMS, a call
// placeholder, or a system note. Rows are immutable once written by a channel
// handler; the timeline builder only ever reads them.
type RawInteraction struct {
	ID         string `json:"id" db:"id"`
	MerchantID string `json:"merchant_id" db:"merchant_id"`

	// ContactPoint is the normalized phone number the event belongs to.
	ContactPoint string `json:"contact_point" db:"contact_point"`

	Channel   Channel   `json:"channel" db:"channel"`
	Direction Direction `json:"direction" db:"direction"`

	Content string `json:"content" db:"content"`

	// CustomerID is optional; resolution may have failed at ingest time.
	CustomerID string `json:"customer_id,omitempty" db:"customer_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Channel string

const (
	ChannelSMS    Channel = "sms"
	ChannelPhone  Channel = "phone"
	ChannelSystem Channel = "system"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)
