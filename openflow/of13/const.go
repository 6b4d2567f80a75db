/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package of13

const (
	/* Immutable messages. */
	OFPT_HELLO        uint8 = iota /* Symmetric message */
	OFPT_ERROR                     /* Symmetric message */
	OFPT_ECHO_REQUEST              /* Symmetric message */
	OFPT_ECHO_REPLY                /* Symmetric message */
	OFPT_EXPERIMENTER              /* Symmetric message */
	/* Switch configuration messages. */
	OFPT_FEATURES_REQUEST   /* Controller/switch message */
	OFPT_FEATURES_REPLY     /* Controller/switch message */
	OFPT_GET_CONFIG_REQUEST /* Controller/switch message */
	OFPT_GET_CONFIG_REPLY   /* Controller/switch message */
	OFPT_SET_CONFIG         /* Controller/switch message */
	/* Asynchronous messages. */
	OFPT_PACKET_IN    /* Async message */
	OFPT_FLOW_REMOVED /* Async message */
	OFPT_PORT_STATUS  /* Async message */
	/* Controller command messages. */
	OFPT_PACKET_OUT /* Controller/switch message */
	OFPT_FLOW_MOD   /* Controller/switch message */
	OFPT_GROUP_MOD  /* Controller/switch message */
	OFPT_PORT_MOD   /* Controller/switch message */
	OFPT_TABLE_MOD  /* Controller/switch message */
	/* Multipart messages. */
	OFPT_MULTIPART_REQUEST /* Controller/switch message */
	OFPT_MULTIPART_REPLY   /* Controller/switch message */
	/* Barrier messages. */
	OFPT_BARRIER_REQUEST /* Controller/switch message */
	OFPT_BARRIER_REPLY   /* Controller/switch message */
	/* Queue Configuration messages. */
	OFPT_QUEUE_GET_CONFIG_REQUEST /* Controller/switch message */
	OFPT_QUEUE_GET_CONFIG_REPLY   /* Controller/switch message */
	/* Controller role change request messages. */
	OFPT_ROLE_REQUEST /* Controller/switch message */
	OFPT_ROLE_REPLY   /* Controller/switch message */
	/* Asynchronous message configuration. */
	OFPT_GET_ASYNC_REQUEST /* Controller/switch message */
	OFPT_GET_ASYNC_REPLY   /* Controller/switch message */
	OFPT_SET_ASYNC         /* Controller/switch message */
	/* Meters and rate limiters configuration messages. */
	OFPT_METER_MOD /* Controller/switch message */
)

const (
	OFPC_FLOW_STATS   = 1 << 0 /* Flow statistics. */
	OFPC_TABLE_STATS  = 1 << 1 /* Table statistics. */
	OFPC_PORT_STATS   = 1 << 2 /* Port statistics. */
	OFPC_GROUP_STATS  = 1 << 3 /* Group statistics. */
	OFPC_IP_REASM     = 1 << 5 /* Can reassemble IP fragments. */
	OFPC_QUEUE_STATS  = 1 << 6 /* Queue statistics. */
	OFPC_PORT_BLOCKED = 1 << 8 /* Switch will block looping ports. */
)

const (
	OFPC_FRAG_NORMAL = iota /* No special handling for fragments. */
	OFPC_FRAG_DROP          /* Drop fragments. */
	OFPC_FRAG_REASM         /* Reassemble (only if OFPC_IP_REASM set). */
	OFPC_FRAG_MASK
)

const (
	/* Maximum number of physical and logical switch ports. */
	OFPP_MAX = 0xffffff00
	/* Reserved OpenFlow Port (fake output "ports"). */
	OFPP_IN_PORT    = 0xfffffff8 /* Send the packet out the input port. */
	OFPP_TABLE      = 0xfffffff9 /* Submit the packet to the first flow table. */
	OFPP_NORMAL     = 0xfffffffa /* Process with normal L2/L3 switching. */
	OFPP_FLOOD      = 0xfffffffb /* All physical ports in VLAN, except input port and those blocked or link down. */
	OFPP_ALL        = 0xfffffffc /* All physical ports except input port. */
	OFPP_CONTROLLER = 0xfffffffd /* Send to controller. */
	OFPP_LOCAL      = 0xfffffffe /* Local openflow "port". */
	OFPP_ANY        = 0xffffffff /* Wildcard port used only for flow mod (delete) and flow stats requests. */
)

const (
	OFP_NO_BUFFER = 0xffffffff
	/* Default miss_send_len of a switch. */
	OFP_DEFAULT_MISS_SEND_LEN = 128
	/* Send the complete packet to the controller. */
	OFPCML_NO_BUFFER = 0xffff
	/* Queue id that means the default queue of a port. */
	OFPQ_ALL = 0xffffffff
)

const (
	OFPR_NO_MATCH    = iota /* No matching flow (table-miss flow entry). */
	OFPR_ACTION             /* Action explicitly output to controller. */
	OFPR_INVALID_TTL        /* Packet has invalid TTL */
)

const (
	OFPAT_OUTPUT       = 0  /* Output to switch port. */
	OFPAT_COPY_TTL_OUT = 11 /* Copy TTL "outwards" */
	OFPAT_COPY_TTL_IN  = 12 /* Copy TTL "inwards" */
	OFPAT_SET_MPLS_TTL = 15 /* MPLS TTL */
	OFPAT_DEC_MPLS_TTL = 16 /* Decrement MPLS TTL */
	OFPAT_PUSH_VLAN    = 17 /* Push a new VLAN tag */
	OFPAT_POP_VLAN     = 18 /* Pop the outer VLAN tag */
	OFPAT_SET_QUEUE    = 21 /* Set queue id when outputting to a port */
	OFPAT_GROUP        = 22 /* Apply group. */
	OFPAT_SET_FIELD    = 25 /* Set a header field using OXM TLV format. */
)

const (
	OFPMT_STANDARD = 0 /* Deprecated. */
	OFPMT_OXM      = 1 /* OpenFlow Extensible Match */
)

const (
	OFPXMC_OPENFLOW_BASIC = 0x8000
	OFPXMT_OFB_IN_PORT    = 0 /* Switch input port. */
)

const (
	OFPET_HELLO_FAILED          = 0  /* Hello protocol failed. */
	OFPET_BAD_REQUEST           = 1  /* Request was not understood. */
	OFPET_BAD_ACTION            = 2  /* Error in action description. */
	OFPET_BAD_INSTRUCTION       = 3  /* Error in instruction list. */
	OFPET_BAD_MATCH             = 4  /* Error in match. */
	OFPET_FLOW_MOD_FAILED       = 5  /* Problem modifying flow entry. */
	OFPET_GROUP_MOD_FAILED      = 6  /* Problem modifying group entry. */
	OFPET_PORT_MOD_FAILED       = 7  /* Port mod request failed. */
	OFPET_TABLE_MOD_FAILED      = 8  /* Table mod request failed. */
	OFPET_QUEUE_OP_FAILED       = 9  /* Queue operation failed. */
	OFPET_SWITCH_CONFIG_FAILED  = 10 /* Switch config request failed. */
	OFPET_ROLE_REQUEST_FAILED   = 11 /* Controller Role request failed. */
	OFPET_METER_MOD_FAILED      = 12 /* Error in meter. */
	OFPET_TABLE_FEATURES_FAILED = 13 /* Setting table features failed. */
	OFPET_EXPERIMENTER          = 0xffff
)

const (
	OFPBRC_BAD_VERSION               = 0  /* ofp_header.version not supported. */
	OFPBRC_BAD_TYPE                  = 1  /* ofp_header.type not supported. */
	OFPBRC_BAD_MULTIPART             = 2  /* ofp_multipart_request.type not supported. */
	OFPBRC_BAD_EXPERIMENTER          = 3  /* Experimenter id not supported. */
	OFPBRC_BAD_EXP_TYPE              = 4  /* Experimenter type not supported. */
	OFPBRC_EPERM                     = 5  /* Permissions error. */
	OFPBRC_BAD_LEN                   = 6  /* Wrong request length for type. */
	OFPBRC_BUFFER_EMPTY              = 7  /* Specified buffer has already been used. */
	OFPBRC_BUFFER_UNKNOWN            = 8  /* Specified buffer does not exist. */
	OFPBRC_BAD_TABLE_ID              = 9  /* Specified table-id invalid or does not exist. */
	OFPBRC_IS_SLAVE                  = 10 /* Denied because controller is slave. */
	OFPBRC_BAD_PORT                  = 11 /* Invalid port. */
	OFPBRC_BAD_PACKET                = 12 /* Invalid packet in packet-out. */
	OFPBRC_MULTIPART_BUFFER_OVERFLOW = 13 /* Multipart request overflowed the assigned buffer. */
)

const (
	OFPHFC_INCOMPATIBLE = 0 /* No compatible version. */
	OFPHFC_EPERM        = 1 /* Permissions error. */
)

const (
	/* Description of this OpenFlow switch.
	 * The request body is empty.
	 * The reply body is struct ofp_desc. */
	OFPMP_DESC = 0
	/* Port description.
	 * The request body is empty.
	 * The reply body is an array of struct ofp_port. */
	OFPMP_PORT_DESC = 13
)

const (
	DESC_STR_LEN   = 256
	SERIAL_NUM_LEN = 32
)

var typeNames = map[uint8]string{
	OFPT_HELLO:                    "HELLO",
	OFPT_ERROR:                    "ERROR",
	OFPT_ECHO_REQUEST:             "ECHO_REQUEST",
	OFPT_ECHO_REPLY:               "ECHO_REPLY",
	OFPT_EXPERIMENTER:             "EXPERIMENTER",
	OFPT_FEATURES_REQUEST:         "FEATURES_REQUEST",
	OFPT_FEATURES_REPLY:           "FEATURES_REPLY",
	OFPT_GET_CONFIG_REQUEST:       "GET_CONFIG_REQUEST",
	OFPT_GET_CONFIG_REPLY:         "GET_CONFIG_REPLY",
	OFPT_SET_CONFIG:               "SET_CONFIG",
	OFPT_PACKET_IN:                "PACKET_IN",
	OFPT_FLOW_REMOVED:             "FLOW_REMOVED",
	OFPT_PORT_STATUS:              "PORT_STATUS",
	OFPT_PACKET_OUT:               "PACKET_OUT",
	OFPT_FLOW_MOD:                 "FLOW_MOD",
	OFPT_GROUP_MOD:                "GROUP_MOD",
	OFPT_PORT_MOD:                 "PORT_MOD",
	OFPT_TABLE_MOD:                "TABLE_MOD",
	OFPT_MULTIPART_REQUEST:        "MULTIPART_REQUEST",
	OFPT_MULTIPART_REPLY:          "MULTIPART_REPLY",
	OFPT_BARRIER_REQUEST:          "BARRIER_REQUEST",
	OFPT_BARRIER_REPLY:            "BARRIER_REPLY",
	OFPT_QUEUE_GET_CONFIG_REQUEST: "QUEUE_GET_CONFIG_REQUEST",
	OFPT_QUEUE_GET_CONFIG_REPLY:   "QUEUE_GET_CONFIG_REPLY",
	OFPT_ROLE_REQUEST:             "ROLE_REQUEST",
	OFPT_ROLE_REPLY:               "ROLE_REPLY",
	OFPT_GET_ASYNC_REQUEST:        "GET_ASYNC_REQUEST",
	OFPT_GET_ASYNC_REPLY:          "GET_ASYNC_REPLY",
	OFPT_SET_ASYNC:                "SET_ASYNC",
	OFPT_METER_MOD:                "METER_MOD",
}

// TypeName returns the protocol name of a message type, e.g., ECHO_REQUEST.
func TypeName(t uint8) string {
	if v, ok := typeNames[t]; ok {
		return v
	}

	return "UNKNOWN"
}
