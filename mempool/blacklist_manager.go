package mempool

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mezonai/runtime/jsonx"
	"github.com/mezonai/runtime/logx"
	"github.com/mezonai/runtime/types"
)

type BlacklistEntry struct {
	Address types.AccountID `json:"address"`
	Reason  string          `json:"reason"`
}

type BlacklistData struct {
	Signers []BlacklistEntry `json:"signers"`
}

// BlacklistManager persists the signers the pool refuses to admit.
type BlacklistManager struct {
	mu       sync.RWMutex
	filePath string
}

func NewBlacklistManager(dataDir string) *BlacklistManager {
	return &BlacklistManager{
		filePath: filepath.Join(dataDir, "blacklist.json"),
	}
}

func (bm *BlacklistManager) SaveBlacklistToFile(blacklist map[types.AccountID]string) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	signers := make([]BlacklistEntry, 0, len(blacklist))
	for id, reason := range blacklist {
		signers = append(signers, BlacklistEntry{Address: id, Reason: reason})
	}

	dir := filepath.Dir(bm.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create blacklist directory: %w", err)
	}

	data, err := jsonx.MarshalIndent(BlacklistData{Signers: signers})
	if err != nil {
		return fmt.Errorf("failed to encode blacklist data: %w", err)
	}

	tempPath := bm.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary blacklist file: %w", err)
	}
	if err := os.Rename(tempPath, bm.filePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary blacklist file: %w", err)
	}

	logx.Info("BLACKLIST", fmt.Sprintf("Successfully saved %d blacklisted signers to %s", len(signers), bm.filePath))
	return nil
}

func (bm *BlacklistManager) LoadBlacklistFromFile() (map[types.AccountID]string, error) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	raw, err := os.ReadFile(bm.filePath)
	if os.IsNotExist(err) {
		logx.Info("BLACKLIST", "Blacklist file does not exist, starting with empty blacklist")
		return make(map[types.AccountID]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blacklist file: %w", err)
	}

	var data BlacklistData
	if err := jsonx.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode blacklist data: %w", err)
	}

	blacklist := make(map[types.AccountID]string, len(data.Signers))
	for _, entry := range data.Signers {
		blacklist[entry.Address] = entry.Reason
	}

	logx.Info("BLACKLIST", fmt.Sprintf("Successfully loaded %d blacklist entries from %s", len(blacklist), bm.filePath))
	return blacklist, nil
}
