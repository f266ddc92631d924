package conversation

import (
	"strings"

	"convohub-platform/internal/contacts"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/tickets"
	"convohub-platform/internal/timeline"
)

// Assemble projects a deduplicated entry sequence plus lookup data into the
// external conversation view. Pure; no side effects.
//
// Attachment rules:
// - first open ticket for the resolved customer
// - first deal for the resolved customer or the contact point itself
// - primary channel: phone takes precedence over sms
// - unread iff the last entry was written by the customer
func Assemble(merchantID, contactPoint string, entries []timeline.Entry, customer *contacts.Customer, tix []tickets.Ticket, dls []deals.Deal) Thread {
	th := Thread{
		ID:            "conv-" + contactPoint,
		MerchantID:    merchantID,
		ContactPoint:  contactPoint,
		CustomerName:  UnknownCallerLabel,
		CustomerPhone: contactPoint,
		Tags:          []string{},
	}

	if customer != nil {
		th.CustomerID = customer.ID
		th.CustomerName = customer.DisplayName()
		th.Vehicle = vehicleLabel(*customer)
		if len(customer.Tags) > 0 {
			th.Tags = append(th.Tags, customer.Tags...)
		}
	}

	th.Messages = fillSenders(entries, th.CustomerName)
	th.Channels = channelSet(entries)
	th.PrimaryChannel = primaryChannel(th.Channels)

	if n := len(entries); n > 0 {
		th.LastMessageAt = entries[n-1].CreatedAt
		th.Unread = entries[n-1].Kind == timeline.KindCustomer
	}

	if customer != nil {
		for i := range tix {
			if tix[i].CustomerID == customer.ID && tix[i].IsOpen() {
				t := tix[i]
				th.Ticket = &t
				break
			}
		}
	}

	for i := range dls {
		if dls[i].CustomerPhone == contactPoint || (customer != nil && dls[i].CustomerID == customer.ID) {
			d := dls[i]
			th.Deal = &d
			break
		}
	}

	return th
}

func fillSenders(entries []timeline.Entry, customerName string) []timeline.Entry {
	out := make([]timeline.Entry, len(entries))
	copy(out, entries)
	for i := range out {
		if out[i].SenderName != "" {
			continue
		}
		switch out[i].Kind {
		case timeline.KindCustomer:
			out[i].SenderName = customerName
		case timeline.KindAgent:
			out[i].SenderName = "Agent"
		case timeline.KindSystem:
			out[i].SenderName = "System"
		}
	}
	return out
}

func channelSet(entries []timeline.Entry) []interactions.Channel {
	seen := map[interactions.Channel]bool{}
	out := make([]interactions.Channel, 0, 2)
	for _, e := range entries {
		if e.Channel == "" || seen[e.Channel] {
			continue
		}
		seen[e.Channel] = true
		out = append(out, e.Channel)
	}
	return out
}

func primaryChannel(channels []interactions.Channel) interactions.Channel {
	var fallback interactions.Channel
	for _, ch := range channels {
		if ch == interactions.ChannelPhone {
			return interactions.ChannelPhone
		}
		if ch == interactions.ChannelSMS {
			fallback = interactions.ChannelSMS
		}
	}
	if fallback != "" {
		return fallback
	}
	if len(channels) > 0 {
		return channels[0]
	}
	return ""
}

func vehicleLabel(c contacts.Customer) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.VehicleYear, c.VehicleMake, c.VehicleModel} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}
