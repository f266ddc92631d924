package conversation

import (
	"testing"
	"time"

	"convohub-platform/internal/contacts"
	"convohub-platform/internal/deals"
	"convohub-platform/internal/interactions"
	"convohub-platform/internal/tickets"
	"convohub-platform/internal/timeline"
)

func entryAt(id string, kind timeline.Kind, ch interactions.Channel, at time.Time) timeline.Entry {
	return timeline.Entry{ID: id, Kind: kind, Content: "msg " + id, Channel: ch, CreatedAt: at}
}

func TestAssemble_UnknownCallerFallback(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0)}

	th := Assemble("m1", "+15550001111", entries, nil, nil, nil)

	if th.CustomerName != UnknownCallerLabel {
		t.Fatalf("CustomerName = %q, want %q", th.CustomerName, UnknownCallerLabel)
	}
	if th.CustomerPhone != "+15550001111" {
		t.Fatalf("CustomerPhone = %q", th.CustomerPhone)
	}
	if th.ID != "conv-+15550001111" {
		t.Fatalf("ID = %q", th.ID)
	}
	if th.Messages[0].SenderName != UnknownCallerLabel {
		t.Fatalf("SenderName = %q, want fallback label", th.Messages[0].SenderName)
	}
}

func TestAssemble_CustomerIdentityAndVehicle(t *testing.T) {
	c := &contacts.Customer{
		ID: "c1", MerchantID: "m1", FirstName: "Maria", LastName: "Lopez",
		Phone: "+15550001111", VehicleYear: "2019", VehicleMake: "Honda", VehicleModel: "Civic",
		Tags: []string{"vip"},
	}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0)}

	th := Assemble("m1", "+15550001111", entries, c, nil, nil)

	if th.CustomerName != "Maria Lopez" {
		t.Fatalf("CustomerName = %q", th.CustomerName)
	}
	if th.Vehicle != "2019 Honda Civic" {
		t.Fatalf("Vehicle = %q", th.Vehicle)
	}
	if len(th.Tags) != 1 || th.Tags[0] != "vip" {
		t.Fatalf("Tags = %v", th.Tags)
	}
	if th.Messages[0].SenderName != "Maria Lopez" {
		t.Fatalf("SenderName = %q", th.Messages[0].SenderName)
	}
}

func TestAssemble_PrimaryChannelPhoneWins(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{
		entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0),
		entryAt("i2", timeline.KindSystem, interactions.ChannelPhone, t0.Add(time.Minute)),
	}

	th := Assemble("m1", "+1555", entries, nil, nil, nil)

	if th.PrimaryChannel != interactions.ChannelPhone {
		t.Fatalf("PrimaryChannel = %q, want phone", th.PrimaryChannel)
	}
	if len(th.Channels) != 2 {
		t.Fatalf("Channels = %v, want both", th.Channels)
	}
}

func TestAssemble_PrimaryChannelSMSOnly(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0)}

	th := Assemble("m1", "+1555", entries, nil, nil, nil)
	if th.PrimaryChannel != interactions.ChannelSMS {
		t.Fatalf("PrimaryChannel = %q, want sms", th.PrimaryChannel)
	}
}

func TestAssemble_UnreadTracksLastEntryKind(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	unread := Assemble("m1", "+1555", []timeline.Entry{
		entryAt("i1", timeline.KindAgent, interactions.ChannelSMS, t0),
		entryAt("i2", timeline.KindCustomer, interactions.ChannelSMS, t0.Add(time.Minute)),
	}, nil, nil, nil)
	if !unread.Unread {
		t.Fatal("expected Unread when customer wrote last")
	}
	if !unread.LastMessageAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("LastMessageAt = %v", unread.LastMessageAt)
	}

	read := Assemble("m1", "+1555", []timeline.Entry{
		entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0),
		entryAt("i2", timeline.KindAgent, interactions.ChannelSMS, t0.Add(time.Minute)),
	}, nil, nil, nil)
	if read.Unread {
		t.Fatal("expected read when agent wrote last")
	}
}

func TestAssemble_AttachesFirstOpenTicket(t *testing.T) {
	c := &contacts.Customer{ID: "c1", MerchantID: "m1", FirstName: "Sam", Phone: "+1555"}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0)}

	tix := []tickets.Ticket{
		{ID: "t1", MerchantID: "m1", CustomerID: "c1", Status: tickets.StatusClosed},
		{ID: "t2", MerchantID: "m1", CustomerID: "other", Status: tickets.StatusOpen},
		{ID: "t3", MerchantID: "m1", CustomerID: "c1", Status: tickets.StatusInProgress},
	}

	th := Assemble("m1", "+1555", entries, c, tix, nil)
	if th.Ticket == nil || th.Ticket.ID != "t3" {
		t.Fatalf("Ticket = %+v, want t3", th.Ticket)
	}

	// No resolved customer: tickets cannot be matched at all.
	th = Assemble("m1", "+1555", entries, nil, tix, nil)
	if th.Ticket != nil {
		t.Fatalf("Ticket = %+v, want none without customer", th.Ticket)
	}
}

func TestAssemble_AttachesDealByPhoneOrCustomer(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []timeline.Entry{entryAt("i1", timeline.KindCustomer, interactions.ChannelSMS, t0)}

	dls := []deals.Deal{
		{ID: "d1", MerchantID: "m1", CustomerID: "other", CustomerPhone: "+1999"},
		{ID: "d2", MerchantID: "m1", CustomerPhone: "+1555"},
	}

	// Phone join works even when customer resolution degraded.
	th := Assemble("m1", "+1555", entries, nil, nil, dls)
	if th.Deal == nil || th.Deal.ID != "d2" {
		t.Fatalf("Deal = %+v, want d2 via phone", th.Deal)
	}

	c := &contacts.Customer{ID: "c9", MerchantID: "m1", Phone: "+1777"}
	dls = []deals.Deal{{ID: "d3", MerchantID: "m1", CustomerID: "c9", CustomerPhone: "+1999"}}
	th = Assemble("m1", "+1777", entries, c, nil, dls)
	if th.Deal == nil || th.Deal.ID != "d3" {
		t.Fatalf("Deal = %+v, want d3 via customer id", th.Deal)
	}
}

func TestAssemble_EmptyEntries(t *testing.T) {
	th := Assemble("m1", "+1555", nil, nil, nil, nil)
	if len(th.Messages) != 0 || th.Unread || !th.LastMessageAt.IsZero() {
		t.Fatalf("unexpected thread for empty entries: %+v", th)
	}
	if th.Tags == nil {
		t.Fatal("Tags should serialize as [], not null")
	}
}
