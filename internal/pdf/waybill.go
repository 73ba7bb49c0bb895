package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateWaybill(data WaybillData) (string, error)
	GenerateReceipt(data ReceiptData) (string, error)
}

// WaybillGenerator — реализация
type WaybillGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string // внутреннее имя шрифта в PDF
}

type WaybillData struct {
	DeliveryID       string
	ClientName       string
	CarrierName      string
	DriverName       string
	CarNumber        string
	PickupAddress    string
	DeliveryAddress  string
	WarehouseAddress string
	CargoQuantity    int
	CargoUnit        string
	Weight           float64
	DeliveryDate     time.Time
	DeliveryPrice    float64
	ContactPhone     string
	Filename         string // имя файла (без путей); если пусто — сгенерируем
}

type ReceiptData struct {
	DeliveryID    string
	ClientName    string
	DeliveryPrice float64
	CompletedAt   time.Time
	Filename      string
}

func NewWaybillGenerator(rootDir, fontPath string) *WaybillGenerator {
	return &WaybillGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

func (g *WaybillGenerator) GenerateWaybill(data WaybillData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("waybill_%s.pdf", data.DeliveryID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Накладная %s", data.DeliveryID), false)
	pdf.SetAuthor("ГрузКлик", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "ТРАНСПОРТНАЯ НАКЛАДНАЯ", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("№ ГК-%s  от  %s",
		shortID(data.DeliveryID),
		data.DeliveryDate.Format("02.01.2006"),
	)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	pdf.Ln(3)

	// ===== Участники
	g.sectionTitle(pdf, "Участники перевозки")
	g.kvLine(pdf, "Грузоотправитель", data.ClientName)
	g.kvLine(pdf, "Перевозчик", data.CarrierName)
	if data.DriverName != "" {
		g.kvLine(pdf, "Водитель", data.DriverName)
	}
	if data.CarNumber != "" {
		g.kvLine(pdf, "Госномер ТС", data.CarNumber)
	}
	g.kvLine(pdf, "Контактный телефон", data.ContactPhone)
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Маршрут
	g.sectionTitle(pdf, "Маршрут")
	g.kvLine(pdf, "Пункт погрузки", data.PickupAddress)
	g.kvLine(pdf, "Склад", data.WarehouseAddress)
	g.kvLine(pdf, "Пункт выгрузки", data.DeliveryAddress)
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Груз и стоимость
	g.sectionTitle(pdf, "Груз и стоимость")
	g.kvLine(pdf, "Количество", fmt.Sprintf("%d %s", data.CargoQuantity, data.CargoUnit))
	g.kvLine(pdf, "Вес", fmt.Sprintf("%.1f кг", data.Weight))
	g.kvLine(pdf, "Стоимость перевозки", fmt.Sprintf("%.2f руб.", data.DeliveryPrice))
	g.kvLine(pdf, "Дата доставки", data.DeliveryDate.Format("02.01.2006"))
	pdf.Ln(1)

	pdf.SetFont(g.fontName, "", 11)
	note := "Груз принят к перевозке в исправной упаковке без видимых повреждений. " +
		"Претензии по количеству и состоянию груза принимаются в момент выгрузки."
	pdf.MultiCell(0, 6, note, "", "L", false)
	pdf.Ln(2)
	g.hr(pdf)

	// ===== Подписи
	g.sectionTitle(pdf, "Подписи")
	pdf.Ln(6)

	lineY := pdf.GetY()
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(80, 6, "Грузоотправитель", "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(80, 6, "Перевозчик", "", 1, "L", false, 0, "")

	pdf.SetLineWidth(0.3)
	pdf.Line(20, lineY+10, 100, lineY+10)
	pdf.SetY(lineY + 12)
	pdf.SetX(20)
	pdf.Cell(80, 5, "(подпись, ФИО)")
	pdf.SetY(lineY + 6)
	pdf.SetX(130)
	pdf.Line(130, lineY+10, 190, lineY+10)
	pdf.SetY(lineY + 12)
	pdf.SetX(130)
	pdf.Cell(80, 5, "(подпись, ФИО)")

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Стр. %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *WaybillGenerator) GenerateReceipt(data ReceiptData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("receipt_%s.pdf", data.DeliveryID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	g.addUTF8Font(pdf)
	pdf.SetFont(g.fontName, "", 14)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.SetY(20)
	center := (210 - pdf.GetStringWidth("КВИТАНЦИЯ")) / 2
	if center < 10 {
		center = 10
	}
	pdf.SetX(center)
	pdf.Cell(40, 10, "КВИТАНЦИЯ")
	pdf.Ln(20)

	g.addLines(pdf, []string{
		fmt.Sprintf("Номер заявки: ГК-%s", shortID(data.DeliveryID)),
		fmt.Sprintf("Заказчик: %s", data.ClientName),
		fmt.Sprintf("Сумма: %.2f руб.", data.DeliveryPrice),
		fmt.Sprintf("Дата выполнения: %s", data.CompletedAt.Format("02.01.2006")),
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== helpers =====

func (g *WaybillGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *WaybillGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(55, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *WaybillGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *WaybillGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *WaybillGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	// AddUTF8Font принимает путь до TTF
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func (g *WaybillGenerator) addLines(pdf *gofpdf.Fpdf, lines []string) {
	pdf.SetFont(g.fontName, "", 12)
	left := 20.0
	for _, line := range lines {
		pdf.SetX(left)
		pdf.Cell(0, 10, line)
		pdf.Ln(15)
	}
}

// shortID — первые 8 символов UUID для номера документа.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
