// internal/domain/models/status.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Review states are closed per entity. Each status type below accepts only the
// states that apply to it, but all of them serialize to the same vocabulary
// stored by earlier versions of the system ("Pending", "Revision from SDU", ...).

type statusKind uint8

const (
	kindPending statusKind = iota
	kindApproved
	kindRevision
	kindApprovedForConduct
	kindStudentRevisionUpdate
	kindConductApproved
)

const (
	textPending               = "Pending"
	textApproved              = "Approved"
	textRevisionPrefix        = "Revision from "
	textApprovedForConduct    = "Approved For Conduct"
	textStudentRevisionUpdate = "Revision Update from Student Leader"
	textConductApproved       = "Conduct Approved"
)

type statusValue struct {
	kind statusKind
	by   string // reviewer label, only for kindRevision
}

func (v statusValue) text() string {
	switch v.kind {
	case kindApproved:
		return textApproved
	case kindRevision:
		return textRevisionPrefix + v.by
	case kindApprovedForConduct:
		return textApprovedForConduct
	case kindStudentRevisionUpdate:
		return textStudentRevisionUpdate
	case kindConductApproved:
		return textConductApproved
	default:
		return textPending
	}
}

// parseStatus decodes s and rejects states outside allowed.
func parseStatus(s string, allowed ...statusKind) (statusValue, error) {
	s = strings.TrimSpace(s)
	var v statusValue
	switch {
	case s == "" || s == textPending:
		v = statusValue{kind: kindPending}
	case s == textApproved:
		v = statusValue{kind: kindApproved}
	case s == textApprovedForConduct:
		v = statusValue{kind: kindApprovedForConduct}
	case s == textStudentRevisionUpdate:
		v = statusValue{kind: kindStudentRevisionUpdate}
	case s == textConductApproved:
		v = statusValue{kind: kindConductApproved}
	case strings.HasPrefix(s, textRevisionPrefix) && len(s) > len(textRevisionPrefix):
		v = statusValue{kind: kindRevision, by: strings.TrimPrefix(s, textRevisionPrefix)}
	default:
		return statusValue{}, fmt.Errorf("unknown status %q", s)
	}
	for _, k := range allowed {
		if k == v.kind {
			return v, nil
		}
	}
	return statusValue{}, fmt.Errorf("status %q is not valid here", s)
}

func decodeStatusBSON(t bsontype.Type, data []byte, allowed ...statusKind) (statusValue, error) {
	if t == bson.TypeNull || t == bson.TypeUndefined {
		return statusValue{kind: kindPending}, nil
	}
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return statusValue{}, fmt.Errorf("status must be a string, got %s", t)
	}
	return parseStatus(s, allowed...)
}

func decodeStatusJSON(b []byte, allowed ...statusKind) (statusValue, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return statusValue{}, err
	}
	return parseStatus(s, allowed...)
}

/* ---------------------------------------------------------------------- */
/* ReviewStatus: documents, rosters, presidents, profiles, accreditations  */
/* ---------------------------------------------------------------------- */

var reviewKinds = []statusKind{kindPending, kindApproved, kindRevision}

// ReviewStatus is Pending, Approved, or a revision request from a reviewer.
// The zero value is Pending.
type ReviewStatus struct{ v statusValue }

func ReviewPending() ReviewStatus { return ReviewStatus{} }
func ReviewApproved() ReviewStatus { return ReviewStatus{statusValue{kind: kindApproved}} }

// ReviewRevision records a revision request from the reviewer labelled by.
func ReviewRevision(by string) ReviewStatus {
	return ReviewStatus{statusValue{kind: kindRevision, by: by}}
}

// ParseReviewStatus decodes the stored form of a ReviewStatus.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	v, err := parseStatus(s, reviewKinds...)
	return ReviewStatus{v}, err
}

func (s ReviewStatus) String() string { return s.v.text() }
func (s ReviewStatus) IsPending() bool { return s.v.kind == kindPending }
func (s ReviewStatus) IsApproved() bool { return s.v.kind == kindApproved }

// RevisionBy returns the reviewer label when s is a revision request.
func (s ReviewStatus) RevisionBy() (string, bool) {
	return s.v.by, s.v.kind == kindRevision
}

func (s ReviewStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *ReviewStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v, err := decodeStatusBSON(t, data, reviewKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}

func (s ReviewStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ReviewStatus) UnmarshalJSON(b []byte) error {
	v, err := decodeStatusJSON(b, reviewKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}

/* ---------------------------------------------------------------------- */
/* ProposalStatus                                                          */
/* ---------------------------------------------------------------------- */

var proposalKinds = []statusKind{kindPending, kindApprovedForConduct, kindRevision, kindStudentRevisionUpdate}

// ProposalStatus tracks a proposed activity from submission until it is
// approved for conduct.
type ProposalStatus struct{ v statusValue }

func ProposalPending() ProposalStatus { return ProposalStatus{} }

func ProposalApprovedForConduct() ProposalStatus {
	return ProposalStatus{statusValue{kind: kindApprovedForConduct}}
}

func ProposalRevision(by string) ProposalStatus {
	return ProposalStatus{statusValue{kind: kindRevision, by: by}}
}

// ProposalStudentUpdate is forced on every student-side edit.
func ProposalStudentUpdate() ProposalStatus {
	return ProposalStatus{statusValue{kind: kindStudentRevisionUpdate}}
}

func ParseProposalStatus(s string) (ProposalStatus, error) {
	v, err := parseStatus(s, proposalKinds...)
	return ProposalStatus{v}, err
}

func (s ProposalStatus) String() string { return s.v.text() }
func (s ProposalStatus) IsPending() bool { return s.v.kind == kindPending }

// IsApprovedForConduct reports whether a conduct record may be created.
func (s ProposalStatus) IsApprovedForConduct() bool { return s.v.kind == kindApprovedForConduct }

func (s ProposalStatus) RevisionBy() (string, bool) {
	return s.v.by, s.v.kind == kindRevision
}

func (s ProposalStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *ProposalStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v, err := decodeStatusBSON(t, data, proposalKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}

func (s ProposalStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ProposalStatus) UnmarshalJSON(b []byte) error {
	v, err := decodeStatusJSON(b, proposalKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}

/* ---------------------------------------------------------------------- */
/* ConductStatus                                                           */
/* ---------------------------------------------------------------------- */

var conductKinds = []statusKind{kindPending, kindStudentRevisionUpdate, kindRevision, kindConductApproved}

// ConductStatus tracks the execution record created from an approved proposal.
type ConductStatus struct{ v statusValue }

func ConductPending() ConductStatus { return ConductStatus{} }
func ConductApproved() ConductStatus { return ConductStatus{statusValue{kind: kindConductApproved}} }
func ConductStudentUpdate() ConductStatus { return ConductStatus{statusValue{kind: kindStudentRevisionUpdate}} }

func ConductRevision(by string) ConductStatus {
	return ConductStatus{statusValue{kind: kindRevision, by: by}}
}

func ParseConductStatus(s string) (ConductStatus, error) {
	v, err := parseStatus(s, conductKinds...)
	return ConductStatus{v}, err
}

func (s ConductStatus) String() string { return s.v.text() }
func (s ConductStatus) IsPending() bool { return s.v.kind == kindPending }
func (s ConductStatus) IsApproved() bool { return s.v.kind == kindConductApproved }

func (s ConductStatus) RevisionBy() (string, bool) {
	return s.v.by, s.v.kind == kindRevision
}

func (s ConductStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *ConductStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v, err := decodeStatusBSON(t, data, conductKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}

func (s ConductStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *ConductStatus) UnmarshalJSON(b []byte) error {
	v, err := decodeStatusJSON(b, conductKinds...)
	if err != nil {
		return err
	}
	s.v = v
	return nil
}
