package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/Africa-Access-Water/afaw-api/internal/notify"
	"github.com/Africa-Access-Water/afaw-api/internal/receipt"
)

// notices turns committed effects into the messages to deliver. Receipts are rendered here, off
// the request path, and a rendering failure only drops the attachment.
func (d *Dispatcher) notices(ctx context.Context, fx Effects) []notify.Notification {
	var out []notify.Notification

	for _, o := range fx.Outcomes {
		data := outcomeData(o)

		if o.Donation.DonorEmail != "" {
			n := notify.Notification{
				Kind: notify.KindDonorConfirmation,
				To:   []string{o.Donation.DonorEmail},
				Data: data,
			}

			if a, ok := d.receiptFor(ctx, o); ok {
				n.Attachments = []notify.Attachment{a}
			}

			out = append(out, n)
		}

		out = d.toAdmins(out, notify.KindAdminNewDonation, data)
	}

	for _, c := range fx.Changes {
		data := changeData(c)
		email := c.Subscription.DonorEmail

		switch c.Kind {
		case ChangeAmount:
			out = toDonor(out, notify.KindDonorAmountChanged, email, data)
			out = d.toAdmins(out, notify.KindAdminAmountChanged, data)
		case ChangeCanceled:
			out = toDonor(out, notify.KindDonorSubscriptionCanceled, email, data)
			out = d.toAdmins(out, notify.KindAdminSubscriptionCanceled, data)
		case ChangePaymentFailed:
			out = toDonor(out, notify.KindDonorPaymentFailed, email, data)
		case ChangeAutoCanceled:
			out = toDonor(out, notify.KindDonorSubscriptionAutoCanceled, email, data)
		}
	}

	return out
}

func (d *Dispatcher) receiptFor(ctx context.Context, o PaymentOutcome) (notify.Attachment, bool) {
	if d.receipts == nil {
		return notify.Attachment{}, false
	}

	r := receipt.ForDonation(&o.Donation, time.Now().UTC())

	pdf, err := d.receipts.Render(ctx, r)
	if err != nil {
		slog.Error("failed to render receipt", "donation_id", o.Donation.ID, "error", err)
		return notify.Attachment{}, false
	}

	return notify.Attachment{Filename: r.Filename(), ContentType: "application/pdf", Content: pdf}, true
}

func (d *Dispatcher) toAdmins(out []notify.Notification, kind notify.Kind, data notify.Data) []notify.Notification {
	if len(d.cfg.AdminEmails) == 0 {
		return out
	}

	return append(out, notify.Notification{Kind: kind, To: d.cfg.AdminEmails, Data: data})
}

func toDonor(out []notify.Notification, kind notify.Kind, email string, data notify.Data) []notify.Notification {
	if email == "" {
		return out
	}

	return append(out, notify.Notification{Kind: kind, To: []string{email}, Data: data})
}

func outcomeData(o PaymentOutcome) notify.Data {
	data := notify.Data{
		DonorName:  o.Donation.DonorName,
		DonorEmail: o.Donation.DonorEmail,
		Amount:     o.Donation.Amount,
		Currency:   o.Donation.Currency,
		Purpose:    o.Donation.Purpose(),
		Frequency:  "one-time",
		Status:     string(o.Donation.Status),
		DonationID: o.Donation.ID.String(),
	}

	if o.Recurring {
		data.Frequency = o.Interval.Frequency()
		if data.Frequency == "" {
			data.Frequency = "recurring"
		}
	}

	if o.Donation.SubscriptionRef != nil {
		data.ProcessorRef = *o.Donation.SubscriptionRef
	}

	return data
}

func changeData(c SubscriptionChange) notify.Data {
	s := c.Subscription

	return notify.Data{
		DonorName:      s.DonorName,
		DonorEmail:     s.DonorEmail,
		Amount:         s.Amount,
		PreviousAmount: c.PreviousAmount,
		Currency:       s.Currency,
		Purpose:        s.Purpose(),
		Frequency:      s.Interval.Frequency(),
		Status:         string(s.Status),
		Attempt:        c.Attempt,
		SubscriptionID: s.ID.String(),
		ProcessorRef:   s.Ref(),
	}
}
