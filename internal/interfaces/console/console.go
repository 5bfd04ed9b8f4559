// Package console implementa la interfaz de operador por línea de comandos.
// Es la capa de entrega de la aplicación de escritorio: traduce comandos de
// texto a los casos de uso y presenta las denegaciones sin tumbar el proceso.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/spatrac/internal/application/auth"
	"github.com/jhoicas/spatrac/internal/application/report"
	"github.com/jhoicas/spatrac/internal/application/tracking"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
	"github.com/jhoicas/spatrac/pkg/logger"
)

// Console conduce la sesión interactiva del operador. También implementa
// tracking.TemperaturePrompt: el diálogo modal de temperatura se resuelve
// leyendo una línea más de la misma entrada.
type Console struct {
	sessions *auth.SessionManager
	reports  *report.UseCase
	catalog  repository.Catalog
	log      *logger.Logger

	// tracking se enlaza después de construir la consola porque el controlador
	// necesita la consola como prompt de temperatura.
	tracking *tracking.Controller

	in  *bufio.Scanner
	out io.Writer
}

// New construye la consola sobre una entrada y salida dadas.
func New(
	sessions *auth.SessionManager,
	reports *report.UseCase,
	catalog repository.Catalog,
	log *logger.Logger,
	in io.Reader,
	out io.Writer,
) *Console {
	return &Console{
		sessions: sessions,
		reports:  reports,
		catalog:  catalog,
		log:      log,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// SetController enlaza el controlador de lotes (ver nota en el struct).
func (c *Console) SetController(t *tracking.Controller) { c.tracking = t }

// Ask implementa tracking.TemperaturePrompt. Línea vacía = cancelar.
func (c *Console) Ask(location string) (decimal.Decimal, bool) {
	fmt.Fprintf(c.out, "Temperature at %s (°C, empty line to cancel): ", location)
	line, ok := c.readLine()
	if !ok || strings.TrimSpace(line) == "" {
		return decimal.Decimal{}, false
	}
	reading, err := decimal.NewFromString(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintln(c.out, "not a number, reading discarded")
		return decimal.Decimal{}, false
	}
	return reading, true
}

// Run atiende comandos hasta EOF o el comando quit.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "SPATRAC console. Type 'help' for commands.")
	for {
		fmt.Fprint(c.out, c.promptLabel())
		line, ok := c.readLine()
		if !ok {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := c.dispatch(ctx, args[0], args[1:]); err != nil {
			fmt.Fprintln(c.out, "error:", err)
		}
	}
}

func (c *Console) promptLabel() string {
	if id, ok := c.sessions.CurrentIdentity(); ok {
		return id.Username + "> "
	}
	return "spatrac> "
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		c.printHelp()
		return nil
	case "login":
		return c.cmdLogin(args)
	case "logout":
		c.sessions.Logout()
		return nil
	case "whoami":
		return c.cmdWhoami()
	case "register":
		return c.cmdRegister(args)
	case "products":
		return c.cmdProducts()
	case "receive":
		return c.cmdReceive(ctx, args)
	case "pending":
		return c.cmdPending(ctx)
	case "inventory":
		return c.cmdInventory(ctx, args)
	case "approve":
		return c.cmdApprove(ctx, args)
	case "process":
		return c.cmdProcess(ctx, args)
	case "temp":
		return c.cmdTemperature(ctx, args)
	case "purge":
		return c.cmdPurge(ctx)
	case "report":
		return c.cmdReport(ctx, args)
	case "export":
		return c.cmdExport(ctx, args)
	case "audit":
		return c.cmdAudit()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `commands:
  login <user> <password>
  logout | whoami | audit
  register <user> <password> <department> <role>
  products
  receive <productCode> <quantity> <unit> <supplierBatch> <sellByDate>
  pending | inventory <department>
  approve <lotID> | process <lotID> | temp <lotID> <celsius>
  purge
  report <out.pdf> <lotID> [lotID...]
  export <out.csv>
  quit
`)
}

func (c *Console) cmdLogin(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <user> <password>")
	}
	if !c.sessions.Login(args[0], args[1]) {
		fmt.Fprintln(c.out, "login refused (bad credentials or a session is already active)")
		return nil
	}
	id, _ := c.sessions.CurrentIdentity()
	fmt.Fprintf(c.out, "logged in as %s (%s, %s)\n", id.Username, id.Role, id.Department)
	return nil
}

func (c *Console) cmdWhoami() error {
	id, ok := c.sessions.CurrentIdentity()
	if !ok {
		fmt.Fprintln(c.out, "no active session")
		return nil
	}
	fmt.Fprintf(c.out, "%s (%s, %s)\n", id.Username, id.Role, id.Department)
	return nil
}

func (c *Console) cmdRegister(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: register <user> <password> <department> <role>")
	}
	dept, err := entity.ParseDepartment(args[2])
	if err != nil {
		return err
	}
	role, err := entity.ParseRole(args[3])
	if err != nil {
		return err
	}
	if err := c.sessions.RegisterUser(args[0], args[1], dept, role); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "user registered")
	return nil
}

func (c *Console) cmdProducts() error {
	for _, d := range c.catalog.Descriptions() {
		fmt.Fprintln(c.out, " ", d)
	}
	return nil
}

func (c *Console) cmdReceive(ctx context.Context, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: receive <productCode> <quantity> <unit> <supplierBatch> <sellByDate>")
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	lot, err := c.tracking.Receive(ctx, tracking.ReceiveInput{
		ProductCode:   args[0],
		Quantity:      qty,
		Unit:          args[2],
		SupplierBatch: args[3],
		SellByDate:    args[4],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "received %s as %s (lot %s)\n", lot.Description, lot.BatchLot, lot.ID)
	return nil
}

func (c *Console) cmdPending(ctx context.Context) error {
	lots, err := c.tracking.PendingDeliveries(ctx)
	if err != nil {
		return err
	}
	c.printLots(lots)
	return nil
}

func (c *Console) cmdInventory(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: inventory <department>")
	}
	dept, err := entity.ParseDepartment(args[0])
	if err != nil {
		return err
	}
	lots, err := c.tracking.DepartmentInventory(ctx, dept)
	if err != nil {
		return err
	}
	c.printLots(lots)
	return nil
}

func (c *Console) printLots(lots []*entity.Lot) {
	if len(lots) == 0 {
		fmt.Fprintln(c.out, "no lots")
		return
	}
	for _, lot := range lots {
		fmt.Fprintf(c.out, "  %s  %-20s %-28s %s %s  [%s]\n",
			lot.ID, lot.BatchLot, lot.Description, lot.Quantity, lot.Unit, lot.Status)
	}
}

func (c *Console) cmdApprove(ctx context.Context, args []string) error {
	lot, err := c.loadLot(ctx, args, "approve <lotID>")
	if err != nil {
		return err
	}
	if err := c.tracking.ApproveDelivery(ctx, lot); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s approved\n", lot.BatchLot)
	return nil
}

func (c *Console) cmdProcess(ctx context.Context, args []string) error {
	lot, err := c.loadLot(ctx, args, "process <lotID>")
	if err != nil {
		return err
	}
	if err := c.tracking.Process(ctx, lot); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s processed at %s\n", lot.BatchLot, lot.CurrentLocation)
	return nil
}

func (c *Console) cmdTemperature(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: temp <lotID> <celsius>")
	}
	lot, err := c.loadLot(ctx, args[:1], "temp <lotID> <celsius>")
	if err != nil {
		return err
	}
	celsius, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("celsius: %w", err)
	}
	if err := c.tracking.RecordTemperature(ctx, lot, celsius); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "temperature recorded")
	return nil
}

func (c *Console) cmdPurge(ctx context.Context) error {
	fmt.Fprint(c.out, "This deletes ALL unprocessed lots. Type 'yes' to confirm: ")
	line, _ := c.readLine()
	if strings.TrimSpace(line) != "yes" {
		fmt.Fprintln(c.out, "purge cancelled")
		return nil
	}
	n, err := c.tracking.PurgeUnprocessed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "purged %d lots\n", n)
	return nil
}

func (c *Console) cmdReport(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: report <out.pdf> <lotID> [lotID...]")
	}
	pdfBytes, err := c.reports.TraceabilityReport(ctx, args[1:])
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	c.log.Info().Str("file", args[0]).Int("lots", len(args)-1).Msg("reporte de trazabilidad generado")
	fmt.Fprintf(c.out, "wrote %s\n", args[0])
	return nil
}

func (c *Console) cmdExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export <out.csv>")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	if err := c.reports.ExportInventory(ctx, f); err != nil {
		return err
	}
	c.log.Info().Str("file", args[0]).Msg("inventario exportado")
	fmt.Fprintf(c.out, "wrote %s\n", args[0])
	return nil
}

func (c *Console) cmdAudit() error {
	for _, e := range c.sessions.AuditLog() {
		fmt.Fprintf(c.out, "  %s  %s: %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Actor, e.Action)
	}
	return nil
}

func (c *Console) loadLot(ctx context.Context, args []string, usage string) (*entity.Lot, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	lot, err := c.tracking.Lot(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return lot, nil
}
