package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Inventory counts stock, membership and invite events. A nil *Inventory is
// valid and records nothing.
type Inventory struct {
	movements       *prometheus.CounterVec
	guardRejections *prometheus.CounterVec
	invitesCreated  prometheus.Counter
	invitesAccepted prometheus.Counter
	inviteEmails    *prometheus.CounterVec
}

// NewInventory registers the inventory metrics on the provided registerer.
func NewInventory(reg prometheus.Registerer) *Inventory {
	if reg == nil {
		return &Inventory{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "easystock_movements_recorded_total",
		Help: "Stock movements recorded, by type.",
	}, []string{"type"})
	guardRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "easystock_last_manager_rejections_total",
		Help: "Membership changes rejected because they would leave a project without an active manager.",
	}, []string{"action"})
	invitesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "easystock_invites_created_total",
		Help: "Project invites created.",
	})
	invitesAccepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "easystock_invites_accepted_total",
		Help: "Project invites accepted.",
	})
	inviteEmails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "easystock_invite_emails_total",
		Help: "Invite email delivery attempts, by result.",
	}, []string{"result"})
	reg.MustRegister(movements, guardRejections, invitesCreated, invitesAccepted, inviteEmails)
	return &Inventory{
		movements:       movements,
		guardRejections: guardRejections,
		invitesCreated:  invitesCreated,
		invitesAccepted: invitesAccepted,
		inviteEmails:    inviteEmails,
	}
}

func (m *Inventory) MovementRecorded(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// GuardRejected records a blocked remove/deactivate/demote.
func (m *Inventory) GuardRejected(action string) {
	if m == nil || m.guardRejections == nil {
		return
	}
	m.guardRejections.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *Inventory) InviteCreated() {
	if m == nil || m.invitesCreated == nil {
		return
	}
	m.invitesCreated.Inc()
}

func (m *Inventory) InviteAccepted() {
	if m == nil || m.invitesAccepted == nil {
		return
	}
	m.invitesAccepted.Inc()
}

// InviteEmail records a delivery attempt; result is sent, failed, queued or disabled.
func (m *Inventory) InviteEmail(result string) {
	if m == nil || m.inviteEmails == nil {
		return
	}
	m.inviteEmails.WithLabelValues(normalizeLabel(result)).Inc()
}
