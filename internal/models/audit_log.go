package models

import "time"

// Audit actions recorded by the scheduling, inventory, cash and posting paths
const (
	ActionCreateAppointment   = "CRIAR AGENDAMENTO"
	ActionEditAppointment     = "EDITAR AGENDAMENTO"
	ActionCompleteAppointment = "CONCLUIR AGENDAMENTO"
	ActionCancelAppointment   = "CANCELAR AGENDAMENTO"
	ActionCreateInvoice       = "CRIAR NOTA"
	ActionStockDecrement      = "BAIXA ESTOQUE"
	ActionStockEntry          = "ENTRADA ESTOQUE"
	ActionCashEntry           = "LANCAR CAIXA"
)

// Audited entity kinds
const (
	EntityAppointment  = "AGENDAMENTO"
	EntityInvoice      = "NOTA"
	EntityProduct      = "PRODUTO"
	EntityCashMovement = "MOVIMENTO_CAIXA"
)

// AuditLog is an immutable record of who did what to which entity
type AuditLog struct {
	ID          int       `json:"id"`
	ActorUserID *int      `json:"actor_user_id"`
	ActorName   string    `json:"actor_name,omitempty"`
	Action      string    `json:"action"`
	EntityKind  string    `json:"entity_kind"`
	EntityID    *int      `json:"entity_id"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLogFilter narrows the audit listing; zero values mean no filter
type AuditLogFilter struct {
	EntityKind  string
	EntityID    *int
	ActorUserID *int
	Limit       int
}
