package http

import (
	"encoding/json"

	"github.com/quizroom/quizroom-server/internal/core"
	"github.com/quizroom/quizroom-server/internal/proto"
)

// inboundToCommand validates a wire message and maps it to a core
// command. A *proto.Error return means the message was understood but
// rejected at the boundary; the registry is never reached.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeCreateRoom:
		var data proto.CreateRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Name == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room name is required"}, nil
		}
		if data.MaxParticipants < 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "max_participants must be positive"}, nil
		}
		return &core.Command{
			Kind: core.CommandCreateRoom,
			Create: &core.CreateRoomCommand{
				Name:            data.Name,
				Public:          data.Public,
				MaxParticipants: data.MaxParticipants,
				DisplayName:     data.DisplayName,
				HostID:          data.Identity,
			},
		}, nil, nil
	case proto.InboundTypeJoinRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.RoomID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room_id is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Join: &core.JoinRoomCommand{
				RoomID:        data.RoomID,
				ParticipantID: data.Identity,
				DisplayName:   data.DisplayName,
			},
		}, nil, nil
	case proto.InboundTypeLeaveRoom:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil, nil
	case proto.InboundTypeListRooms:
		return &core.Command{Kind: core.CommandListRooms}, nil, nil
	case proto.InboundTypeTransferHost:
		var data proto.TransferHostData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandTransferHost,
			Transfer: &core.TransferHostCommand{TargetID: data.Target},
		}, nil, nil
	case proto.InboundTypeUpdateRoom:
		var data proto.UpdateRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Name == nil && data.Public == nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "nothing to update"}, nil
		}
		return &core.Command{
			Kind:   core.CommandUpdateRoom,
			Update: &core.RoomUpdate{Name: data.Name, Public: data.Public},
		}, nil, nil
	case proto.InboundTypeItemAdd:
		var data proto.ItemAddData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Title == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "title is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandAddItem,
			Item: &core.ItemCommand{Title: data.Title, Payload: data.Payload},
		}, nil, nil
	case proto.InboundTypeItemRemove, proto.InboundTypeItemStart:
		var data proto.ItemRefData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ItemID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "item_id is required"}, nil
		}
		kind := core.CommandRemoveItem
		if inbound.Type == proto.InboundTypeItemStart {
			kind = core.CommandStartItem
		}
		return &core.Command{
			Kind: kind,
			Item: &core.ItemCommand{ItemID: data.ItemID},
		}, nil, nil
	case proto.InboundTypeAnswer:
		var data proto.AnswerData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ItemID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "item_id is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandSubmitAnswer,
			Answer: &core.AnswerCommand{ItemID: data.ItemID, Answer: data.Answer},
		}, nil, nil
	case proto.InboundTypeJudge:
		var data proto.JudgeData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target is required"}, nil
		}
		return &core.Command{
			Kind:  core.CommandJudge,
			Judge: &core.JudgeCommand{TargetID: data.Target, Correct: data.Correct, Points: data.Score},
		}, nil, nil
	case proto.InboundTypeHello:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "hello already received"}, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomCreated:
		return eventOutbound(proto.EventNameRoomCreated, roomView(event.Room))
	case core.EventRoomJoined:
		return eventOutbound(proto.EventNameRoomJoined, proto.EventRoomJoined{
			Room:        roomView(event.Room),
			Participant: participantView(event.Participant),
		})
	case core.EventRoomLeft:
		return eventOutbound(proto.EventNameRoomLeft, nil)
	case core.EventRoomList:
		rooms := make([]proto.Room, 0, len(event.Rooms))
		for i := range event.Rooms {
			rooms = append(rooms, roomView(&event.Rooms[i]))
		}
		return eventOutbound(proto.EventNameRoomList, proto.EventRoomList{Rooms: rooms})
	case core.EventRoomUpdated:
		return eventOutbound(proto.EventNameRoomUpdated, roomView(event.Room))
	case core.EventUserJoined:
		return eventOutbound(proto.EventNameUserJoined, participantView(event.Participant))
	case core.EventUserLeft:
		return eventOutbound(proto.EventNameUserLeft, proto.EventUserLeft{Identity: event.UserID})
	case core.EventHostTransferred:
		return eventOutbound(proto.EventNameHostTransferred, proto.EventHostTransferred{Identity: event.UserID})
	case core.EventItemAdded:
		return eventOutbound(proto.EventNameItemAdded, itemView(event.Item))
	case core.EventItemRemoved:
		return eventOutbound(proto.EventNameItemRemoved, itemView(event.Item))
	case core.EventItemStarted:
		return eventOutbound(proto.EventNameItemStarted, itemView(event.Item))
	case core.EventAnswerSubmitted:
		return eventOutbound(proto.EventNameAnswer, proto.EventAnswer{
			Identity: event.UserID,
			ItemID:   event.Answer.ItemID,
			Answer:   event.Answer.Answer,
		})
	case core.EventJudged:
		return eventOutbound(proto.EventNameJudged, proto.EventJudged{
			Identity: event.Participant.ID,
			Correct:  event.Correct,
			Score:    event.Participant.Score,
		})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func roomView(room *core.Room) proto.Room {
	participants := make([]proto.Participant, 0, len(room.Participants))
	for i := range room.Participants {
		participants = append(participants, participantView(&room.Participants[i]))
	}
	items := make([]proto.Item, 0, len(room.Items))
	for i := range room.Items {
		items = append(items, itemView(&room.Items[i]))
	}
	return proto.Room{
		ID:              room.ID,
		Name:            room.Name,
		Public:          room.Public,
		MaxParticipants: room.MaxParticipants,
		HostID:          room.HostID,
		Participants:    participants,
		Items:           items,
		CurrentItemID:   room.CurrentItemID,
		CreatedAt:       room.CreatedAt.Unix(),
	}
}

func participantView(p *core.Participant) proto.Participant {
	return proto.Participant{
		ID:     p.ID,
		Name:   p.Name,
		IsHost: p.IsHost,
		Score:  p.Score,
	}
}

func itemView(item *core.QuizItem) proto.Item {
	return proto.Item{
		ID:      item.ID,
		Title:   item.Title,
		Payload: item.Payload,
		Started: item.Started,
	}
}
