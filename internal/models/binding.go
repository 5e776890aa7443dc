package models

import "time"

// BindingPermissions holds the capability flags an admin has at one rank.
type BindingPermissions struct {
	ManageDrivers   bool `db:"can_manage_drivers" json:"can_manage_drivers"`
	ViewFinancials  bool `db:"can_view_financials" json:"can_view_financials"`
	EditRankDetails bool `db:"can_edit_rank_details" json:"can_edit_rank_details"`
	ManageRoutes    bool `db:"can_manage_routes" json:"can_manage_routes"`
	ManageTerminals bool `db:"can_manage_terminals" json:"can_manage_terminals"`
}

// FullPermissions grants every capability flag. Registration approvals use it.
func FullPermissions() BindingPermissions {
	return BindingPermissions{
		ManageDrivers:   true,
		ViewFinancials:  true,
		EditRankDetails: true,
		ManageRoutes:    true,
		ManageTerminals: true,
	}
}

// PermissionUpdate carries a partial permission edit; nil fields are left
// unchanged.
type PermissionUpdate struct {
	ManageDrivers   *bool   `json:"can_manage_drivers,omitempty"`
	ViewFinancials  *bool   `json:"can_view_financials,omitempty"`
	EditRankDetails *bool   `json:"can_edit_rank_details,omitempty"`
	ManageRoutes    *bool   `json:"can_manage_routes,omitempty"`
	ManageTerminals *bool   `json:"can_manage_terminals,omitempty"`
	Designation     *string `json:"designation,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// Apply merges the update into the permissions, touching only set fields.
func (u PermissionUpdate) Apply(p BindingPermissions) BindingPermissions {
	if u.ManageDrivers != nil {
		p.ManageDrivers = *u.ManageDrivers
	}
	if u.ViewFinancials != nil {
		p.ViewFinancials = *u.ViewFinancials
	}
	if u.EditRankDetails != nil {
		p.EditRankDetails = *u.EditRankDetails
	}
	if u.ManageRoutes != nil {
		p.ManageRoutes = *u.ManageRoutes
	}
	if u.ManageTerminals != nil {
		p.ManageTerminals = *u.ManageTerminals
	}
	return p
}

// Binding associates an admin user with a rank they manage. The bindings
// table carries UNIQUE (rank_id) and UNIQUE (user_id, rank_id), so at most
// one admin manages any rank at any time.
type Binding struct {
	ID          string  `db:"id" json:"id"`
	UserID      string  `db:"user_id" json:"user_id"`
	RankID      string  `db:"rank_id" json:"rank_id"`
	Designation *string `db:"designation" json:"designation,omitempty"`
	Notes       *string `db:"notes" json:"notes,omitempty"`

	BindingPermissions

	AssignedAt  time.Time `db:"assigned_at" json:"assigned_at"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}

// BindingDetail joins the binding with its rank and admin identity for
// roster listings.
type BindingDetail struct {
	Binding
	RankName   string `db:"rank_name" json:"rank_name"`
	RankCode   string `db:"rank_code" json:"rank_code"`
	RankCity   string `db:"rank_city" json:"rank_city"`
	AdminName  string `db:"admin_name" json:"admin_name"`
	AdminEmail string `db:"admin_email" json:"admin_email"`
}
