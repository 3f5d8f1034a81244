package core

import "time"

// User es el registro de identidad. password_secret guarda el PHC argon2id del
// secreto que presenta el cliente, nunca el secreto en claro. Los flags de
// estado (is_blocked, requires_password_reset, two_factor_enabled) se releen
// del sistema de registro en cada request; acá no se cachea nada.
type User struct {
	ID                    string
	Login                 string
	Name                  string
	Surname               string
	Email                 string
	PhoneNumber           string
	GroupID               int64
	PasswordSecret        string
	Status                string
	TwoFactorEnabled      bool
	IsBlocked             bool
	RequiresPasswordReset bool
	CreatedAt             time.Time
}

// Group es un paquete de permisos: un nombre y un set de rule ids. La semántica
// de cada rule vive fuera de este core. Rules se reemplaza entero en updates,
// nunca se parchea.
type Group struct {
	ID    int64
	Name  string
	Rules []int
}

// AuthEvent es el registro de auditoría append-only de autenticaciones
// exitosas. Nunca se muta ni se borra desde este core.
type AuthEvent struct {
	ID       int64
	UserID   string
	AuthTime time.Time
	SourceIP string
}

// TOTPSecret es el secreto de segundo factor de un usuario y el último
// contador consumido (anti-replay). ConfirmedAt nil = enrolamiento pendiente.
type TOTPSecret struct {
	UserID      string
	Secret      string // base32 sin padding
	LastCounter int64
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Depot es un almacén físico.
type Depot struct {
	ID           int64
	Name         string
	Address      string
	ContactPhone string
	ContactEmail string
	PostalCode   string
	Capacity     int
	IsActive     bool
	Description  string
	ManagerName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DepotSection es una ubicación dentro de un depot (armario/estante).
type DepotSection struct {
	ID            int64
	DepotID       int64
	SectionName   string
	CabinetNumber int
	ShelfNumber   int
	Capacity      int
	MaxWeight     float64
	TempControl   bool
	HumidityCtl   bool
	Description   string
	CreatedAt     time.Time
}

// DepotItem es mercadería almacenada en un depot.
type DepotItem struct {
	ID          int64
	DepotID     int64
	SectionID   *int64
	SupplierID  *int64
	Name        string
	Barcode     string
	Weight      float64
	Quantity    int
	Description string
	Status      string
	Price       float64
	ImageKey    string
	ReceivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Supplier es un proveedor de mercadería.
type Supplier struct {
	ID            int64
	Name          string
	ContactPerson string
	ContactPhone  string
	ContactEmail  string
	Address       string
	Country       string
	Preferred     bool
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attachment es la metadata de un archivo subido a object storage.
// Key es la clave S3; el contenido vive fuera de la base.
type Attachment struct {
	ID          string
	Key         string
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}
