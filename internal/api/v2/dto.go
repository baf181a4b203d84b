package api

import (
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
)

// SampleRequest is the body of POST /samples and PUT /samples/:id.
// Dates use YYYY-MM-DD.
type SampleRequest struct {
	InternalNumber string `json:"internal_number"`
	ProviderNumber string `json:"provider_number"`
	ProviderID     uint   `json:"provider_id"`
	TargetID       uint   `json:"target_id"`
	SampleTypeID   uint   `json:"sample_type_id"`

	RoomID    *uint `json:"room_id"`
	FreezerID *uint `json:"freezer_id"`
	DrawerID  *uint `json:"drawer_id"`
	BoxID     *uint `json:"box_id"`

	ExtractorID   *uint    `json:"extractor_id"`
	CyclerID      *uint    `json:"cycler_id"`
	MikrogenKitID *uint    `json:"mikrogen_kit_id"`
	ExternalKitID *uint    `json:"external_kit_id"`
	MikrogenCT    *float64 `json:"mikrogen_ct"`
	ExternalCT    *float64 `json:"external_ct"`

	DrawDate        string `json:"draw_date"`
	ExtractionDate  string `json:"extraction_date"`
	Gender          string `json:"gender"`
	Age             *int   `json:"age"`
	CountryOfOrigin string `json:"country_of_origin"`

	Volume      float64  `json:"volume"`
	PositiveFor []string `json:"positive_for"`
	NegativeFor []string `json:"negative_for"`
	Notes       string   `json:"notes"`
}

// Input converts the request into service input, collecting every
// malformed date as a field error.
func (r *SampleRequest) Input() (inventory.SampleInput, error) {
	var fe inventory.FieldErrors
	parse := func(field, raw string) *time.Time {
		if raw == "" {
			return nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			fe = append(fe, inventory.FieldError{Field: field, Message: "expected YYYY-MM-DD"})
			return nil
		}
		return &t
	}

	in := inventory.SampleInput{
		InternalNumber:  r.InternalNumber,
		ProviderNumber:  r.ProviderNumber,
		ProviderID:      r.ProviderID,
		TargetID:        r.TargetID,
		SampleTypeID:    r.SampleTypeID,
		RoomID:          r.RoomID,
		FreezerID:       r.FreezerID,
		DrawerID:        r.DrawerID,
		BoxID:           r.BoxID,
		ExtractorID:     r.ExtractorID,
		CyclerID:        r.CyclerID,
		MikrogenKitID:   r.MikrogenKitID,
		ExternalKitID:   r.ExternalKitID,
		MikrogenCT:      r.MikrogenCT,
		ExternalCT:      r.ExternalCT,
		DrawDate:        parse("draw_date", r.DrawDate),
		ExtractionDate:  parse("extraction_date", r.ExtractionDate),
		Gender:          r.Gender,
		Age:             r.Age,
		CountryOfOrigin: r.CountryOfOrigin,
		Volume:          r.Volume,
		PositiveFor:     r.PositiveFor,
		NegativeFor:     r.NegativeFor,
		Notes:           r.Notes,
	}
	if len(fe) > 0 {
		return in, errors.New(fe).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return in, nil
}

// SampleResponse is a sample with its references resolved to names
type SampleResponse struct {
	ID             uint   `json:"id"`
	InternalNumber string `json:"internal_number"`
	ProviderNumber string `json:"provider_number,omitempty"`
	ProviderID     uint   `json:"provider_id"`
	Provider       string `json:"provider"`
	TargetID       uint   `json:"target_id"`
	Target         string `json:"target"`
	SampleTypeID   uint   `json:"sample_type_id"`
	SampleType     string `json:"sample_type"`
	StorageID      *uint  `json:"storage_id"`
	Storage        string `json:"storage,omitempty"`
	StoragePath    string `json:"storage_path,omitempty"`

	Extractor   string   `json:"extractor,omitempty"`
	Cycler      string   `json:"cycler,omitempty"`
	MikrogenKit string   `json:"mikrogen_kit,omitempty"`
	ExternalKit string   `json:"external_kit,omitempty"`
	MikrogenCT  *float64 `json:"mikrogen_ct"`
	ExternalCT  *float64 `json:"external_ct"`

	DrawDate        *string          `json:"draw_date"`
	ExtractionDate  *string          `json:"extraction_date"`
	Gender          *entities.Gender `json:"gender"`
	Age             *int             `json:"age"`
	CountryOfOrigin string           `json:"country_of_origin,omitempty"`

	Volume           float64 `json:"volume"`
	VolumeRemaining  float64 `json:"volume_remaining"`
	VolumePercentage float64 `json:"volume_percentage"`

	Status      repository.SampleStatus `json:"status"`
	CurrentUser string                  `json:"current_user,omitempty"`
	Reserved    bool                    `json:"reserved"`

	PositiveFor []string `json:"positive_for"`
	NegativeFor []string `json:"negative_for"`
	Notes       string   `json:"notes,omitempty"`

	AddedBy      string    `json:"added_by,omitempty"`
	DateAdded    time.Time `json:"date_added"`
	LastModified time.Time `json:"last_modified"`
}

// UsageResponse is one ledger entry of a sample
type UsageResponse struct {
	UserID        uint       `json:"user_id"`
	Username      string     `json:"username,omitempty"`
	CheckoutDate  time.Time  `json:"checkout_date"`
	ActiveUseDate *time.Time `json:"active_use_date"`
	ReturnDate    *time.Time `json:"return_date"`
	VolumeUsed    float64    `json:"volume_used"`
	NotFound      bool       `json:"not_found"`
}

// SampleDetailResponse adds the storage path and the ledger
type SampleDetailResponse struct {
	SampleResponse
	History []UsageResponse `json:"history"`
}

func statusOf(s *entities.Sample) repository.SampleStatus {
	switch {
	case s.NotFound:
		return repository.StatusNotFound
	case s.InUse && s.ActiveUse:
		return repository.StatusInUse
	case s.InUse:
		return repository.StatusReserved
	default:
		return repository.StatusAvailable
	}
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func newSampleResponse(sum *inventory.SampleSummary) SampleResponse {
	s := &sum.Sample
	resp := SampleResponse{
		ID:               s.ID,
		InternalNumber:   s.InternalNumber,
		ProviderNumber:   s.ProviderNumber,
		ProviderID:       s.ProviderID,
		TargetID:         s.TargetID,
		SampleTypeID:     s.SampleTypeID,
		StorageID:        s.StorageID,
		MikrogenCT:       s.MikrogenCT,
		ExternalCT:       s.ExternalCT,
		DrawDate:         dateString(s.DrawDate),
		ExtractionDate:   dateString(s.ExtractionDate),
		Gender:           s.Gender,
		Age:              s.Age,
		CountryOfOrigin:  s.CountryOfOrigin,
		Volume:           s.Volume,
		VolumeRemaining:  s.VolumeRemaining,
		VolumePercentage: sum.VolumePercentage,
		Status:           statusOf(s),
		Reserved:         sum.Reserved,
		PositiveFor:      inventory.SplitTargets(s.PositiveFor),
		NegativeFor:      inventory.SplitTargets(s.NegativeFor),
		Notes:            s.Notes,
		DateAdded:        s.DateAdded,
		LastModified:     s.LastModified,
	}
	if s.Provider != nil {
		resp.Provider = s.Provider.Name
	}
	if s.Target != nil {
		resp.Target = s.Target.Name
	}
	if s.SampleType != nil {
		resp.SampleType = s.SampleType.Name
	}
	if s.Storage != nil {
		resp.Storage = s.Storage.Name
	}
	if s.Extractor != nil {
		resp.Extractor = s.Extractor.Name
	}
	if s.Cycler != nil {
		resp.Cycler = s.Cycler.Name
	}
	if s.MikrogenKit != nil {
		resp.MikrogenKit = s.MikrogenKit.Name
	}
	if s.ExternalKit != nil {
		resp.ExternalKit = s.ExternalKit.Name
	}
	if s.CurrentUser != nil {
		resp.CurrentUser = s.CurrentUser.Username
	}
	if s.AddedBy != nil {
		resp.AddedBy = s.AddedBy.Username
	}
	return resp
}

func newSampleResponses(samples []inventory.SampleSummary) []SampleResponse {
	out := make([]SampleResponse, 0, len(samples))
	for i := range samples {
		out = append(out, newSampleResponse(&samples[i]))
	}
	return out
}

func newSampleDetailResponse(d *inventory.SampleDetail) SampleDetailResponse {
	resp := SampleDetailResponse{
		SampleResponse: newSampleResponse(&d.SampleSummary),
		History:        make([]UsageResponse, 0, len(d.History)),
	}
	resp.StoragePath = d.StoragePath
	resp.PositiveFor = d.PositiveTargets
	resp.NegativeFor = d.NegativeTargets
	for i := range d.History {
		h := &d.History[i]
		u := UsageResponse{
			UserID:        h.UserID,
			CheckoutDate:  h.CheckoutDate,
			ActiveUseDate: h.ActiveUseDate,
			ReturnDate:    h.ReturnDate,
			VolumeUsed:    h.VolumeUsed,
			NotFound:      h.NotFound,
		}
		if h.User != nil {
			u.Username = h.User.Username
		}
		resp.History = append(resp.History, u)
	}
	return resp
}
