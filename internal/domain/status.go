package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("Unknown status")
)

// TransitionError carries the rejected move; its text is shown to clients as is.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// transitions maps every known state to the states reachable from it.
// Terminal states are present with no successors.
type transitions[S ~string] map[S][]S

func (t transitions[S]) valid(s S) bool {
	_, ok := t[s]
	return ok
}

func (t transitions[S]) check(from, to S) error {
	if !t.valid(to) {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, to)
	}
	if !t.valid(from) {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, from)
	}
	for _, next := range t[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: string(from), To: string(to)}
}

// parse matches raw against the known states, ignoring case and surrounding space.
func (t transitions[S]) parse(raw string) (S, error) {
	raw = strings.TrimSpace(raw)
	for s := range t {
		if strings.EqualFold(string(s), raw) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStatus, raw)
}

type ProjectStatus string

const (
	ProjectUpcoming ProjectStatus = "UPCOMING"
	ProjectOpen     ProjectStatus = "OPEN"
	ProjectFunded   ProjectStatus = "FUNDED"
	ProjectClosed   ProjectStatus = "CLOSED"
)

var projectTransitions = transitions[ProjectStatus]{
	ProjectUpcoming: {ProjectOpen, ProjectClosed},
	ProjectOpen:     {ProjectFunded, ProjectClosed},
	ProjectFunded:   {ProjectOpen, ProjectClosed},
	ProjectClosed:   nil,
}

func ParseProjectStatus(raw string) (ProjectStatus, error) { return projectTransitions.parse(raw) }
func (s ProjectStatus) Valid() bool { return projectTransitions.valid(s) }
func (s ProjectStatus) TransitionTo(to ProjectStatus) error { return projectTransitions.check(s, to) }

type InvestmentStatus string

const (
	InvestmentPending   InvestmentStatus = "PENDING"
	InvestmentActive    InvestmentStatus = "ACTIVE"
	InvestmentMatured   InvestmentStatus = "MATURED"
	InvestmentCancelled InvestmentStatus = "CANCELLED"
)

var investmentTransitions = transitions[InvestmentStatus]{
	InvestmentPending:   {InvestmentActive, InvestmentCancelled},
	InvestmentActive:    {InvestmentMatured, InvestmentCancelled},
	InvestmentMatured:   nil,
	InvestmentCancelled: nil,
}

func ParseInvestmentStatus(raw string) (InvestmentStatus, error) { return investmentTransitions.parse(raw) }
func (s InvestmentStatus) Valid() bool { return investmentTransitions.valid(s) }
func (s InvestmentStatus) TransitionTo(to InvestmentStatus) error {
	return investmentTransitions.check(s, to)
}

type CertificateStatus string

const (
	CertificatePending CertificateStatus = "PENDING"
	CertificateIssued  CertificateStatus = "ISSUED"
	CertificateFailed  CertificateStatus = "FAILED"
)

var certificateTransitions = transitions[CertificateStatus]{
	CertificatePending: {CertificateIssued, CertificateFailed},
	CertificateFailed:  {CertificatePending},
	CertificateIssued:  nil,
}

func ParseCertificateStatus(raw string) (CertificateStatus, error) { return certificateTransitions.parse(raw) }
func (s CertificateStatus) Valid() bool { return certificateTransitions.valid(s) }
func (s CertificateStatus) TransitionTo(to CertificateStatus) error {
	return certificateTransitions.check(s, to)
}

type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "Open"
	ComplaintInProgress ComplaintStatus = "In Progress"
	ComplaintResolved   ComplaintStatus = "Resolved"
	ComplaintClosed     ComplaintStatus = "Closed"
)

var complaintTransitions = transitions[ComplaintStatus]{
	ComplaintOpen:       {ComplaintInProgress, ComplaintResolved, ComplaintClosed},
	ComplaintInProgress: {ComplaintResolved, ComplaintClosed},
	ComplaintResolved:   {ComplaintOpen, ComplaintClosed},
	ComplaintClosed:     nil,
}

func ParseComplaintStatus(raw string) (ComplaintStatus, error) { return complaintTransitions.parse(raw) }
func (s ComplaintStatus) Valid() bool { return complaintTransitions.valid(s) }
func (s ComplaintStatus) TransitionTo(to ComplaintStatus) error {
	return complaintTransitions.check(s, to)
}

type ContactStatus string

const (
	ContactOpen      ContactStatus = "Open"
	ContactResponded ContactStatus = "Responded"
	ContactClosed    ContactStatus = "Closed"
)

var contactTransitions = transitions[ContactStatus]{
	ContactOpen:      {ContactResponded, ContactClosed},
	ContactResponded: {ContactClosed},
	ContactClosed:    nil,
}

func ParseContactStatus(raw string) (ContactStatus, error) { return contactTransitions.parse(raw) }
func (s ContactStatus) Valid() bool { return contactTransitions.valid(s) }
func (s ContactStatus) TransitionTo(to ContactStatus) error { return contactTransitions.check(s, to) }

type ReportStatus string

const (
	ReportOpen          ReportStatus = "Open"
	ReportInvestigating ReportStatus = "Investigating"
	ReportResolved      ReportStatus = "Resolved"
	ReportDismissed     ReportStatus = "Dismissed"
)

var reportTransitions = transitions[ReportStatus]{
	ReportOpen:          {ReportInvestigating, ReportResolved, ReportDismissed},
	ReportInvestigating: {ReportResolved, ReportDismissed},
	ReportResolved:      nil,
	ReportDismissed:     nil,
}

func ParseReportStatus(raw string) (ReportStatus, error) { return reportTransitions.parse(raw) }
func (s ReportStatus) Valid() bool { return reportTransitions.valid(s) }
func (s ReportStatus) TransitionTo(to ReportStatus) error { return reportTransitions.check(s, to) }

type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventOngoing   EventStatus = "ONGOING"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

var eventTransitions = transitions[EventStatus]{
	EventUpcoming:  {EventOngoing, EventCompleted, EventCancelled},
	EventOngoing:   {EventCompleted, EventCancelled},
	EventCompleted: nil,
	EventCancelled: nil,
}

func ParseEventStatus(raw string) (EventStatus, error) { return eventTransitions.parse(raw) }
func (s EventStatus) Valid() bool { return eventTransitions.valid(s) }
func (s EventStatus) TransitionTo(to EventStatus) error { return eventTransitions.check(s, to) }

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
	RegistrationAttended   RegistrationStatus = "ATTENDED"
)

var registrationTransitions = transitions[RegistrationStatus]{
	RegistrationRegistered: {RegistrationCancelled, RegistrationAttended},
	RegistrationCancelled:  nil,
	RegistrationAttended:   nil,
}

func ParseRegistrationStatus(raw string) (RegistrationStatus, error) { return registrationTransitions.parse(raw) }
func (s RegistrationStatus) Valid() bool { return registrationTransitions.valid(s) }
func (s RegistrationStatus) TransitionTo(to RegistrationStatus) error {
	return registrationTransitions.check(s, to)
}

type ListingStatus string

const (
	ListingAvailable  ListingStatus = "AVAILABLE"
	ListingUnderOffer ListingStatus = "UNDER_OFFER"
	ListingSold       ListingStatus = "SOLD"
	ListingWithdrawn  ListingStatus = "WITHDRAWN"
)

var listingTransitions = transitions[ListingStatus]{
	ListingAvailable:  {ListingUnderOffer, ListingSold, ListingWithdrawn},
	ListingUnderOffer: {ListingAvailable, ListingSold, ListingWithdrawn},
	ListingWithdrawn:  {ListingAvailable},
	ListingSold:       nil,
}

func ParseListingStatus(raw string) (ListingStatus, error) { return listingTransitions.parse(raw) }
func (s ListingStatus) Valid() bool { return listingTransitions.valid(s) }
func (s ListingStatus) TransitionTo(to ListingStatus) error { return listingTransitions.check(s, to) }

type LandStatus string

const (
	LandPending     LandStatus = "PENDING"
	LandUnderReview LandStatus = "UNDER_REVIEW"
	LandApproved    LandStatus = "APPROVED"
	LandRejected    LandStatus = "REJECTED"
)

var landTransitions = transitions[LandStatus]{
	LandPending:     {LandUnderReview, LandApproved, LandRejected},
	LandUnderReview: {LandApproved, LandRejected},
	LandApproved:    nil,
	LandRejected:    nil,
}

func ParseLandStatus(raw string) (LandStatus, error) { return landTransitions.parse(raw) }
func (s LandStatus) Valid() bool { return landTransitions.valid(s) }
func (s LandStatus) TransitionTo(to LandStatus) error { return landTransitions.check(s, to) }
