package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propertyfriends/pf-engine/domain"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PROPERTIES
// =============================================================================

const propertyColumns = `id, address_line1, suburb, state, postcode, property_label, building_type,
	design_category, has_ooa, has_breakout_room, has_fire_sprinklers, location_factor,
	sda_enrolment_status, rental_agency_id`

func (s *Store) SaveProperty(ctx context.Context, p domain.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO properties (` + propertyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			address_line1 = excluded.address_line1,
			suburb = excluded.suburb,
			state = excluded.state,
			postcode = excluded.postcode,
			property_label = excluded.property_label,
			building_type = excluded.building_type,
			design_category = excluded.design_category,
			has_ooa = excluded.has_ooa,
			has_breakout_room = excluded.has_breakout_room,
			has_fire_sprinklers = excluded.has_fire_sprinklers,
			location_factor = excluded.location_factor,
			sda_enrolment_status = excluded.sda_enrolment_status,
			rental_agency_id = excluded.rental_agency_id
	`
	factor := p.LocationFactor
	if factor.IsZero() {
		factor = decimal.NewFromInt(1)
	}
	return s.exec(ctx, query,
		p.ID, p.AddressLine1, p.Suburb, p.State, p.Postcode, p.PropertyLabel,
		string(p.BuildingType), string(p.DesignCategory),
		boolInt(p.HasOOA), boolInt(p.HasBreakoutRoom), boolInt(p.HasFireSprinklers),
		factor.String(), string(p.SdaEnrolmentStatus), p.RentalAgencyID,
	)
}

func (s *Store) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanProperty(s.queryRow(ctx, "SELECT "+propertyColumns+" FROM properties WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return s.queryProperties(ctx, "SELECT "+propertyColumns+" FROM properties ORDER BY id")
}

func (s *Store) EnrolledProperties(ctx context.Context) ([]domain.Property, error) {
	return s.queryProperties(ctx,
		"SELECT "+propertyColumns+" FROM properties WHERE sda_enrolment_status = ? ORDER BY id",
		string(domain.EnrolmentEnrolled))
}

func (s *Store) queryProperties(ctx context.Context, query string, args ...any) ([]domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (domain.Property, error) {
	var p domain.Property
	var buildingType, designCategory, factor, status string
	var ooa, breakout, sprinklers int
	err := row.Scan(&p.ID, &p.AddressLine1, &p.Suburb, &p.State, &p.Postcode, &p.PropertyLabel,
		&buildingType, &designCategory, &ooa, &breakout, &sprinklers, &factor, &status, &p.RentalAgencyID)
	if err != nil {
		return p, err
	}
	p.BuildingType = pricing.BuildingType(buildingType)
	p.DesignCategory = pricing.DesignCategory(designCategory)
	p.HasOOA, p.HasBreakoutRoom, p.HasFireSprinklers = ooa != 0, breakout != 0, sprinklers != 0
	p.LocationFactor, _ = decimal.NewFromString(factor)
	p.SdaEnrolmentStatus = domain.SdaEnrolmentStatus(status)
	return p, nil
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

const participantColumns = `id, ndis_number, first_name, last_name, email, date_of_birth,
	plan_management_type, plan_start_date, plan_end_date`

func (s *Store) SaveParticipant(ctx context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ndis_number = excluded.ndis_number,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			date_of_birth = excluded.date_of_birth,
			plan_management_type = excluded.plan_management_type,
			plan_start_date = excluded.plan_start_date,
			plan_end_date = excluded.plan_end_date
	`
	return s.exec(ctx, query,
		p.ID, p.NDISNumber, p.FirstName, p.LastName, p.Email, nullTime(p.DateOfBirth),
		string(p.PlanManagementType), nullTime(p.PlanStartDate), nullTime(p.PlanEndDate),
	)
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanParticipant(s.queryRow(ctx, "SELECT "+participantColumns+" FROM participants WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ExpiringPlans(ctx context.Context, now time.Time, withinDays int) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT `+participantColumns+` FROM participants
		WHERE plan_end_date IS NOT NULL AND plan_end_date >= ? AND plan_end_date <= ?
		ORDER BY plan_end_date
	`, formatTime(now), formatTime(now.AddDate(0, 0, withinDays)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []domain.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func scanParticipant(row scanner) (domain.Participant, error) {
	var p domain.Participant
	var mgmt string
	var dob, start, end sql.NullString
	if err := row.Scan(&p.ID, &p.NDISNumber, &p.FirstName, &p.LastName, &p.Email, &dob, &mgmt, &start, &end); err != nil {
		return p, err
	}
	p.DateOfBirth = timePtr(dob)
	p.PlanManagementType = domain.PlanManagementType(mgmt)
	p.PlanStartDate, p.PlanEndDate = timePtr(start), timePtr(end)
	return p, nil
}

// =============================================================================
// RENTAL AGENCIES AND BOOKINGS
// =============================================================================

func (s *Store) SaveRentalAgency(ctx context.Context, a domain.RentalAgency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO rental_agencies (id, name, management_fee_rate) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			management_fee_rate = excluded.management_fee_rate
	`, a.ID, a.Name, a.ManagementFeeRate.String())
}

func (s *Store) GetRentalAgency(ctx context.Context, id string) (*domain.RentalAgency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a domain.RentalAgency
	var rate string
	err := s.queryRow(ctx, "SELECT id, name, management_fee_rate FROM rental_agencies WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.ManagementFeeRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) SaveServiceBooking(ctx context.Context, b domain.ServiceBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exec(ctx, `
		INSERT INTO service_bookings (id, participant_id, property_id, ndia_booking_id,
			allocated_amount, remaining_amount, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			participant_id = excluded.participant_id,
			property_id = excluded.property_id,
			ndia_booking_id = excluded.ndia_booking_id,
			allocated_amount = excluded.allocated_amount,
			remaining_amount = excluded.remaining_amount,
			end_date = excluded.end_date
	`, b.ID, b.ParticipantID, b.PropertyID, b.NDIABookingID,
		int64(b.AllocatedAmount), int64(b.RemainingAmount), formatTime(b.EndDate))
}

func (s *Store) GetServiceBooking(ctx context.Context, id string) (*domain.ServiceBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b domain.ServiceBooking
	var allocated, remaining int64
	var end string
	err := s.queryRow(ctx, `
		SELECT id, participant_id, property_id, ndia_booking_id, allocated_amount, remaining_amount, end_date
		FROM service_bookings WHERE id = ?
	`, id).Scan(&b.ID, &b.ParticipantID, &b.PropertyID, &b.NDIABookingID, &allocated, &remaining, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.AllocatedAmount, b.RemainingAmount = moneyCents(allocated), moneyCents(remaining)
	b.EndDate = parseTime(end)
	return &b, nil
}

func (s *Store) ExpiringBookings(ctx context.Context, now time.Time, withinDays int) ([]exceptions.ExpiringBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.query(ctx, `
		SELECT b.id, b.participant_id, b.property_id, b.ndia_booking_id, b.allocated_amount,
			b.remaining_amount, b.end_date,
			p.id, p.ndis_number, p.first_name, p.last_name, p.email, p.date_of_birth,
			p.plan_management_type, p.plan_start_date, p.plan_end_date
		FROM service_bookings b
		JOIN participants p ON p.id = b.participant_id
		WHERE b.end_date >= ? AND b.end_date <= ?
		ORDER BY b.end_date
	`, formatTime(now), formatTime(now.AddDate(0, 0, withinDays)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []exceptions.ExpiringBooking{}
	for rows.Next() {
		var e exceptions.ExpiringBooking
		b, p := &e.Booking, &e.Participant
		var allocated, remaining int64
		var end, mgmt string
		var dob, start, planEnd sql.NullString
		err := rows.Scan(&b.ID, &b.ParticipantID, &b.PropertyID, &b.NDIABookingID, &allocated, &remaining, &end,
			&p.ID, &p.NDISNumber, &p.FirstName, &p.LastName, &p.Email, &dob, &mgmt, &start, &planEnd)
		if err != nil {
			return nil, err
		}
		b.AllocatedAmount, b.RemainingAmount = moneyCents(allocated), moneyCents(remaining)
		b.EndDate = parseTime(end)
		p.DateOfBirth = timePtr(dob)
		p.PlanManagementType = domain.PlanManagementType(mgmt)
		p.PlanStartDate, p.PlanEndDate = timePtr(start), timePtr(planEnd)
		result = append(result, e)
	}
	return result, rows.Err()
}
