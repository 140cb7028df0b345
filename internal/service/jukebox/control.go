package jukebox

import (
	"context"

	"github.com/jamqueue/server/internal/repository/connection"
)

// ControlResponse carries the display-class conns a device command goes to.
type ControlResponse struct {
	Conns []*connection.Conn
}

func (s *service) deviceControl(senderId string) (ControlResponse, error) {
	if !s.connRepo.IsAdmin(senderId) {
		return ControlResponse{}, ErrPermissionDenied
	}

	return ControlResponse{
		Conns: s.connRepo.GetConnsByRole(connection.RoleDisplay),
	}, nil
}

type TogglePauseParams struct {
	SenderId string
}

func (s *service) TogglePause(ctx context.Context, params *TogglePauseParams) (ControlResponse, error) {
	return s.deviceControl(params.SenderId)
}

type SetVolumeParams struct {
	SenderId string
	Volume   int
}

type SetVolumeResponse struct {
	Volume int
	Conns  []*connection.Conn
}

func (s *service) SetVolume(ctx context.Context, params *SetVolumeParams) (SetVolumeResponse, error) {
	if !s.connRepo.IsAdmin(params.SenderId) {
		return SetVolumeResponse{}, ErrPermissionDenied
	}

	if params.Volume < 0 || params.Volume > 100 {
		return SetVolumeResponse{}, ErrInvalidVolume
	}

	return SetVolumeResponse{
		Volume: params.Volume,
		Conns:  s.connRepo.GetConnsByRole(connection.RoleDisplay),
	}, nil
}

type ForceReloadParams struct {
	SenderId string
}

func (s *service) ForceReload(ctx context.Context, params *ForceReloadParams) (ControlResponse, error) {
	return s.deviceControl(params.SenderId)
}

type ToggleKaraokeParams struct {
	SenderId string
}

func (s *service) ToggleKaraoke(ctx context.Context, params *ToggleKaraokeParams) (ControlResponse, error) {
	return s.deviceControl(params.SenderId)
}

type RelayPlayerStateParams struct {
	State int
}

type RelayPlayerStateResponse struct {
	State int
	// AdminConn is the sole recipient; telemetry never goes wide.
	AdminConn *connection.Conn
}

// RelayPlayerState forwards low-level player telemetry from the playback
// device to the admin connection, if there is one.
func (s *service) RelayPlayerState(ctx context.Context, params *RelayPlayerStateParams) (RelayPlayerStateResponse, error) {
	conn, err := s.connRepo.GetAdminConn()
	if err != nil {
		return RelayPlayerStateResponse{}, err
	}

	return RelayPlayerStateResponse{
		State:     params.State,
		AdminConn: conn,
	}, nil
}
