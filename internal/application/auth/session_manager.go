package auth

import (
	"strings"
	"time"

	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

// Identity es la proyección de sólo lectura de la sesión activa.
type Identity struct {
	Username   string
	Role       entity.Role
	Department entity.Department
}

// AuditEntry es una entrada del registro plano de auditoría de sesión.
// Append-only: nunca se edita ni se borra.
type AuditEntry struct {
	Timestamp time.Time
	Actor     string
	Action    string
}

// SessionManager mantiene el registro de usuarios, la única sesión activa y
// las decisiones de autorización por departamento y rol. Es un objeto
// explícito inyectado a cada operación del ciclo de vida (nada de estado
// global): los tests pueden crear varios gestores independientes.
//
// Los predicados de autorización nunca devuelven error; responden false y el
// llamador presenta la denegación al operador.
type SessionManager struct {
	users repository.UserRepository
	creds CredentialScheme
	now   func() time.Time

	current *entity.User
	log     []AuditEntry
}

// Option configura el SessionManager en construcción.
type Option func(*SessionManager)

// WithClock fija el reloj (tests deterministas).
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// WithCredentialScheme cambia el esquema de credenciales (p. ej. bcrypt).
func WithCredentialScheme(s CredentialScheme) Option {
	return func(m *SessionManager) { m.creds = s }
}

// NewSessionManager construye el gestor sobre un registro de usuarios.
// Por defecto usa comparación exacta en claro y el reloj del sistema.
func NewSessionManager(users repository.UserRepository, opts ...Option) *SessionManager {
	m := &SessionManager{
		users: users,
		creds: PlainCredentials{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterUser inserta un usuario en el registro. Username vacío se rechaza;
// un username ya registrado devuelve ErrUserAlreadyExists en vez de
// sombrearse en silencio (decisión deliberada, documentada en DESIGN.md).
// Department y Role pueden venir vacíos en instalaciones antiguas: un
// departamento vacío no autoriza nada y un rol vacío no es Manager.
func (m *SessionManager) RegisterUser(username, password string, dept entity.Department, role entity.Role) error {
	if strings.TrimSpace(username) == "" {
		return domain.ErrInvalidInput
	}
	if existing, _ := m.users.GetByUsername(username); existing != nil {
		return domain.ErrUserAlreadyExists
	}
	stored, err := m.creds.Encode(password)
	if err != nil {
		return err
	}
	return m.users.Create(&entity.User{
		Username:   username,
		Credential: stored,
		Department: dept,
		Role:       role,
		CreatedAt:  m.now(),
	})
}

// Login autentica por coincidencia exacta de username y credencial.
// Con sesión ya activa se rechaza: el reemplazo exige Logout explícito.
// El fallo se comunica por el booleano, nunca por pánico ni error; una sesión
// existente queda intacta ante un intento fallido.
func (m *SessionManager) Login(username, password string) bool {
	if m.current != nil {
		return false
	}
	user, err := m.users.GetByUsername(username)
	if err != nil || user == nil {
		return false
	}
	if !m.creds.Verify(user.Credential, password) {
		return false
	}
	m.current = user
	m.append(user.Username, "logged in")
	return true
}

// Logout cierra la sesión activa; sin sesión es un no-op.
func (m *SessionManager) Logout() {
	if m.current == nil {
		return
	}
	m.append(m.current.Username, "logged out")
	m.current = nil
}

// CurrentIdentity devuelve la identidad de la sesión activa, o false.
func (m *SessionManager) CurrentIdentity() (Identity, bool) {
	if m.current == nil {
		return Identity{}, false
	}
	return Identity{
		Username:   m.current.Username,
		Role:       m.current.Role,
		Department: m.current.Department,
	}, true
}

// IsAuthenticated indica si hay sesión activa.
func (m *SessionManager) IsAuthenticated() bool {
	return m.current != nil
}

// IsManager indica si la sesión activa tiene rol Manager (sin distinguir
// mayúsculas).
func (m *SessionManager) IsManager() bool {
	return m.current != nil && m.current.IsManager()
}

// IsAuthorizedForDepartment decide si el usuario nombrado (no necesariamente
// el de la sesión) puede actuar sobre targetDept: o su departamento coincide
// (comparación insensible a mayúsculas y espacios), o es un Manager del
// departamento Delivery, la autoridad transversal de recepción.
func (m *SessionManager) IsAuthorizedForDepartment(username string, targetDept entity.Department) bool {
	user, err := m.users.GetByUsername(username)
	if err != nil || user == nil {
		return false
	}
	if user.Department.Equals(targetDept) {
		return true
	}
	return user.IsManager() && user.Department.Equals(entity.DepartmentDelivery)
}

// IsDeliveryManager indica si la sesión activa es un Manager de Delivery.
// La UI condiciona botones concretos a este predicado, por eso existe con
// nombre propio además de la regla general.
func (m *SessionManager) IsDeliveryManager() bool {
	return m.current != nil && m.current.IsManager() &&
		m.current.Department.Equals(entity.DepartmentDelivery)
}

// RecordAction anota una acción de la sesión activa en el registro plano.
// Sin sesión es un no-op: las operaciones ya habrán sido rechazadas antes.
func (m *SessionManager) RecordAction(action string) {
	if m.current == nil {
		return
	}
	m.append(m.current.Username, action)
}

// AuditLog devuelve una copia del registro de auditoría en orden cronológico.
func (m *SessionManager) AuditLog() []AuditEntry {
	return append([]AuditEntry(nil), m.log...)
}

func (m *SessionManager) append(actor, action string) {
	m.log = append(m.log, AuditEntry{Timestamp: m.now(), Actor: actor, Action: action})
}
