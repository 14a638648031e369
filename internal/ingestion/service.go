// Package ingestion loads the store's spreadsheet exports into the
// normalized in-memory collections the engine consumes. Everything here is
// a data supplier; the reconciliation core never touches a file.
package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/SNS-EUGENE/busansuper-payments/internal/engine"
)

// Workbook file names expected under the data directory.
const (
	SettlementBatchFile = "settlement_batch.xlsx"
	PosLogFile          = "pos_card_log.xlsx"
	ReceiptDetailFile   = "receipt_sales_detail.xlsx"
	ProductListFile     = "product_list.xlsx"
)

// Service loads feeds from a directory of workbook exports.
type Service struct {
	dataDir string
	log     *logrus.Logger
}

// NewService creates an ingestion service over a data directory.
func NewService(dataDir string, log *logrus.Logger) *Service {
	return &Service{dataDir: dataDir, log: log}
}

// LoadFeeds parses the three required feeds plus the optional product list.
// A missing required workbook is an error; a missing product list degrades
// to a nil directory (every line lands on the unassigned vendor).
func (s *Service) LoadFeeds() (engine.Feeds, *Directory, error) {
	var feeds engine.Feeds

	if err := s.withWorkbook(SettlementBatchFile, func(f *excelize.File) error {
		records, err := ParseSettlementBatch(f)
		if err != nil {
			return err
		}
		feeds.Settlements = records
		return nil
	}); err != nil {
		return engine.Feeds{}, nil, err
	}

	if err := s.withWorkbook(PosLogFile, func(f *excelize.File) error {
		txns, err := ParsePosLog(f)
		if err != nil {
			return err
		}
		feeds.Transactions = txns
		return nil
	}); err != nil {
		return engine.Feeds{}, nil, err
	}

	if err := s.withWorkbook(ReceiptDetailFile, func(f *excelize.File) error {
		lines, err := ParseReceiptDetail(f)
		if err != nil {
			return err
		}
		feeds.ReceiptLines = lines
		return nil
	}); err != nil {
		return engine.Feeds{}, nil, err
	}

	var directory *Directory
	err := s.withWorkbook(ProductListFile, func(f *excelize.File) error {
		products, err := ParseProductList(f)
		if err != nil {
			return err
		}
		directory = NewDirectory(products)
		return nil
	})
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return engine.Feeds{}, nil, err
		}
		s.log.WithField("component", "ingestion").
			Warn("product list missing, all lines fall to the unassigned vendor")
	}

	s.log.WithFields(logrus.Fields{
		"component":     "ingestion",
		"settlements":   len(feeds.Settlements),
		"transactions":  len(feeds.Transactions),
		"receipt_lines": len(feeds.ReceiptLines),
	}).Info("feeds loaded")

	return feeds, directory, nil
}

func (s *Service) withWorkbook(name string, fn func(*excelize.File) error) error {
	path := filepath.Join(s.dataDir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
