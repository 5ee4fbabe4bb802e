package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/donor"
	"github.com/Africa-Access-Water/afaw-api/internal/processor"
	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=checkout
type Donors interface {
	FindOrCreate(ctx context.Context, name, email string) (*donor.Donor, error)
	AttachCustomer(ctx context.Context, d *donor.Donor, customerRef string) error
}

type Donations interface {
	Create(ctx context.Context, params donation.CreateParams) (*donation.Donation, error)
	AttachCheckoutSession(ctx context.Context, d *donation.Donation, sessionID string) error
}

type Subscriptions interface {
	Create(ctx context.Context, params subscription.CreateParams) (*subscription.Subscription, error)
	AttachCheckoutSession(ctx context.Context, s *subscription.Subscription, sessionID string) error
}

type Processor interface {
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req processor.SessionRequest) (*processor.Session, error)
}

type Service struct {
	donors        Donors
	donations     Donations
	subscriptions Subscriptions
	processor     Processor
}

func NewService(donors Donors, donations Donations, subscriptions Subscriptions, p Processor) *Service {
	return &Service{
		donors:        donors,
		donations:     donations,
		subscriptions: subscriptions,
		processor:     p,
	}
}

// Start records an initiated donation or subscription and opens the checkout session for it.
// The session id is stored before returning so webhooks for it always find a local record.
func (s *Service) Start(ctx context.Context, req Request) (*Result, error) {
	req.normalize()

	if err := req.validate(); err != nil {
		return nil, err
	}

	d, err := s.donors.FindOrCreate(ctx, req.Name, req.Email)
	if err != nil {
		return nil, fmt.Errorf("resolving donor: %w", err)
	}

	customerRef, err := s.customerRef(ctx, d)
	if err != nil {
		return nil, err
	}

	sessionReq := processor.SessionRequest{
		CustomerRef: customerRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Metadata:    map[string]string{"donorId": d.ID.String()},
	}

	if req.ProjectID != nil {
		sessionReq.ProjectID = req.ProjectID.String()
		sessionReq.Metadata["projectId"] = req.ProjectID.String()
	}

	if req.Recurring {
		return s.startSubscription(ctx, req, d, sessionReq)
	}

	return s.startDonation(ctx, req, d, sessionReq)
}

// StartSubscription is Start for the recurring-only endpoint.
func (s *Service) StartSubscription(ctx context.Context, req Request) (*Result, error) {
	req.Recurring = true

	return s.Start(ctx, req)
}

func (s *Service) customerRef(ctx context.Context, d *donor.Donor) (string, error) {
	if d.CustomerRef != nil && *d.CustomerRef != "" {
		return *d.CustomerRef, nil
	}

	ref, err := s.processor.CreateCustomer(ctx, d.Name, d.Email)
	if err != nil {
		return "", err
	}

	if err := s.donors.AttachCustomer(ctx, d, ref); err != nil {
		return "", fmt.Errorf("saving customer reference: %w", err)
	}

	return ref, nil
}

func (s *Service) startDonation(ctx context.Context, req Request, d *donor.Donor, sessionReq processor.SessionRequest) (*Result, error) {
	don, err := s.donations.Create(ctx, donation.CreateParams{
		DonorID:   d.ID,
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Currency:  req.Currency,
	})
	if err != nil {
		return nil, err
	}

	sessionReq.Mode = processor.ModePayment
	sessionReq.Metadata["donationId"] = don.ID.String()

	sess, err := s.processor.CreateCheckoutSession(ctx, sessionReq)
	if err != nil {
		return nil, err
	}

	if err := s.donations.AttachCheckoutSession(ctx, don, sess.ID); err != nil {
		return nil, err
	}

	slog.Info("checkout started", "donation_id", don.ID, "session_id", sess.ID)

	return &Result{ID: don.ID, SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) startSubscription(ctx context.Context, req Request, d *donor.Donor, sessionReq processor.SessionRequest) (*Result, error) {
	sub, err := s.subscriptions.Create(ctx, subscription.CreateParams{
		DonorID:   d.ID,
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Interval:  subscription.Interval(req.Interval),
	})
	if err != nil {
		return nil, err
	}

	sessionReq.Mode = processor.ModeSubscription
	sessionReq.Interval = req.Interval
	sessionReq.Metadata["subscriptionId"] = sub.ID.String()

	sess, err := s.processor.CreateCheckoutSession(ctx, sessionReq)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.AttachCheckoutSession(ctx, sub, sess.ID); err != nil {
		return nil, err
	}

	slog.Info("subscription checkout started", "subscription_id", sub.ID, "session_id", sess.ID, "interval", req.Interval)

	return &Result{ID: sub.ID, SessionID: sess.ID, URL: sess.URL}, nil
}
