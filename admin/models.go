package admin

// Stats summarizes the user base for the admin panel.
type Stats struct {
	TotalUsers        int
	Randonneurs       int
	Chasseurs         int
	CertifiedHunters  int
	PendingHunters    int
	Admins            int
}
