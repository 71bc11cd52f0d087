package constants

const (
	CreateProject     = "create_project"
	EditProject       = "edit_project"
	ManageProjects    = "manage_projects"
	Invest            = "invest"
	ManageInvestments = "manage_investments"
	ManageUsers       = "manage_users"
	ManageContacts    = "manage_contacts"
	FileComplaint     = "file_complaint"
	ManageComplaints  = "manage_complaints"
	FileReport        = "file_report"
	ManageReports     = "manage_reports"
	ManageEvents      = "manage_events"
	RegisterForEvent  = "register_for_event"
	ManageListings    = "manage_listings"
	SubmitLand        = "submit_land"
	ReviewLand        = "review_land"
	UseWallet         = "use_wallet"
)

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	CreateProject:     {RoleDeveloper, RoleAdmin},
	EditProject:       {RoleDeveloper, RoleAdmin},
	ManageProjects:    {RoleAdmin},
	Invest:            {RoleUser, RoleDeveloper, RoleAdmin},
	ManageInvestments: {RoleAdmin},
	ManageUsers:       {RoleAdmin},
	ManageContacts:    {RoleAdmin},
	FileComplaint:     {RoleUser, RoleDeveloper, RoleAdmin},
	ManageComplaints:  {RoleAdmin},
	FileReport:        {RoleUser, RoleDeveloper, RoleAdmin},
	ManageReports:     {RoleAdmin},
	ManageEvents:      {RoleAdmin},
	RegisterForEvent:  {RoleUser, RoleDeveloper, RoleAdmin},
	ManageListings:    {RoleDeveloper, RoleAdmin},
	SubmitLand:        {RoleUser, RoleDeveloper, RoleAdmin},
	ReviewLand:        {RoleAdmin},
	UseWallet:         {RoleUser, RoleDeveloper, RoleAdmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
