package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// Devices implements the device registry operations.
type Devices struct {
	deviceStore      model.DeviceStore
	userStore        model.UserStore
	logger           *logger.Logger
	offlineThreshold time.Duration
}

func NewDevices(
	deviceStore model.DeviceStore,
	userStore model.UserStore,
	logger *logger.Logger,
	offlineThreshold time.Duration,
) *Devices {
	return &Devices{
		deviceStore:      deviceStore,
		userStore:        userStore,
		logger:           logger,
		offlineThreshold: offlineThreshold,
	}
}

// RegisterDeviceParams describes one client registration call.
type RegisterDeviceParams struct {
	UserID     uuid.UUID
	Name       string
	Identifier string
	OSType     string
	OSVersion  string
}

// DeviceStatus is a device together with its derived liveness.
type DeviceStatus struct {
	model.Device
	Online bool
}

// Register upserts the calling device keyed on its stable identifier. The
// same physical device always maps to the same row, even across reinstalls
// and account switches.
func (s *Devices) Register(ctx context.Context, params RegisterDeviceParams) (model.Device, bool, error) {
	_, err := s.userStore.GetByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Device{}, false, model.ErrNotFound
		}
		return model.Device{}, false, fmt.Errorf("failed to get user by id: %w", err)
	}

	device := model.Device{
		ID:         uuid.New(),
		UserID:     params.UserID,
		Name:       params.Name,
		Identifier: params.Identifier,
		OSType:     params.OSType,
		OSVersion:  params.OSVersion,
	}

	saved, isNew, err := s.deviceStore.Upsert(ctx, device)
	if err != nil {
		return model.Device{}, false, fmt.Errorf("failed to upsert device: %w", err)
	}

	return saved, isNew, nil
}

// List returns the user's devices with liveness computed against now.
func (s *Devices) List(ctx context.Context, userID uuid.UUID) ([]DeviceStatus, error) {
	devices, err := s.deviceStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	now := time.Now()
	statuses := make([]DeviceStatus, 0, len(devices))
	for _, d := range devices {
		statuses = append(statuses, DeviceStatus{
			Device: d,
			Online: d.Alive(now, s.offlineThreshold),
		})
	}
	return statuses, nil
}

func (s *Devices) Rename(ctx context.Context, deviceID, userID uuid.UUID, name string) (model.Device, error) {
	device, err := s.deviceStore.Rename(ctx, deviceID, userID, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Device{}, model.ErrNotFound
		}
		return model.Device{}, fmt.Errorf("failed to rename device: %w", err)
	}
	return device, nil
}

// Heartbeat refreshes the device's last-seen timestamp. Only the owner can
// refresh it. Liveness is a best-effort signal, so failures are logged and
// swallowed.
func (s *Devices) Heartbeat(ctx context.Context, deviceID, userID uuid.UUID) {
	if err := s.deviceStore.Heartbeat(ctx, deviceID, userID); err != nil {
		s.logger.Warn("heartbeat failed", "device_id", deviceID, "error", err)
	}
}

func (s *Devices) SetSyncEnabled(ctx context.Context, deviceID, userID uuid.UUID, enabled bool) (model.Device, error) {
	device, err := s.deviceStore.SetSyncEnabled(ctx, deviceID, userID, enabled)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Device{}, model.ErrNotFound
		}
		return model.Device{}, fmt.Errorf("failed to set sync enabled: %w", err)
	}
	return device, nil
}

// Delete removes the device from the user's view. Fonts are owned by the
// user, not the device, so the catalog is untouched.
func (s *Devices) Delete(ctx context.Context, deviceID, userID uuid.UUID) error {
	if err := s.deviceStore.Delete(ctx, deviceID, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}
